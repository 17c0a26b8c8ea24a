package engine

import (
	"context"

	"github.com/ketohub/crawler/spider"
	"go.uber.org/zap"
)

// Schedule owns the frontier of one site. A single goroutine runs
// Schedule; workers Pull entries and report each one back with Done, along
// with the links it discovered. The frontier is exhausted when the queue
// is empty and no pulled entry is still being worked on.
type Schedule struct {
	seen     spider.ReqHistoryRepository
	workerCh chan *spider.Request
	doneCh   chan []*spider.Request
	queue    []*spider.Request
	inflight int
	stopped  bool
	enqueued func(*spider.Request)
	logger   *zap.Logger
}

func NewSchedule(seen spider.ReqHistoryRepository, logger *zap.Logger) *Schedule {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Schedule{
		seen:     seen,
		workerCh: make(chan *spider.Request),
		doneCh:   make(chan []*spider.Request),
		enqueued: func(*spider.Request) {},
		logger:   logger,
	}
}

// Pull blocks until an entry is available. ok is false once the frontier
// is exhausted or the crawl was stopped.
func (s *Schedule) Pull() (req *spider.Request, ok bool) {
	req, ok = <-s.workerCh

	return req, ok
}

// Done reports a pulled entry as finished together with the entries it
// discovered.
func (s *Schedule) Done(discovered ...*spider.Request) {
	s.doneCh <- discovered
}

// Schedule runs the frontier until it is exhausted. Cancelling ctx drops
// the pending entries; entries already pulled are waited for.
func (s *Schedule) Schedule(ctx context.Context, seeds ...*spider.Request) {
	defer close(s.workerCh)

	s.push(seeds...)
	stop := ctx.Done()

	for {
		if len(s.queue) == 0 && s.inflight == 0 {
			return
		}

		var ch chan *spider.Request
		var req *spider.Request
		if len(s.queue) > 0 {
			req = s.queue[0]
			ch = s.workerCh
		}

		select {
		case reqs := <-s.doneCh:
			s.inflight--
			s.push(reqs...)
		case ch <- req:
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.inflight++
		case <-stop:
			s.logger.Info("crawl stopped, dropping frontier",
				zap.Int("pending", len(s.queue)),
				zap.Int("inflight", s.inflight))
			s.queue = nil
			s.stopped = true
			stop = nil
		}
	}
}

func (s *Schedule) push(reqs ...*spider.Request) {
	if s.stopped {
		return
	}

	for _, req := range reqs {
		if err := req.Check(); err != nil {
			s.logger.Debug("check failed", zap.Error(err), zap.String("url", req.URL))
			continue
		}

		if !s.seen.Visit(req) {
			continue
		}

		s.queue = append(s.queue, req)
		s.enqueued(req)
	}
}
