package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/ketohub/crawler/limiter"
	"github.com/ketohub/crawler/spider"
	"go.uber.org/zap"
)

var (
	errRobotsDisallowed = errors.New("disallowed by robots.txt")
	errStopped          = errors.New("crawl stopped")
)

// siteCrawl is the run state of one site: its frontier, its workers and
// the politeness limiter they share.
type siteCrawl struct {
	*Crawler
	site     *spider.Site
	history  spider.ReqHistoryRepository
	schedule *Schedule
	limit    limiter.RateLimiter
	robots   RobotsChecker
	logger   *zap.Logger

	fetched       atomic.Int64
	failed        atomic.Int64
	archived      atomic.Int64
	imagesMissing atomic.Int64
	skipped       atomic.Int64
}

func (c *Crawler) newSiteCrawl(site *spider.Site) *siteCrawl {
	logger := c.Logger.With(zap.String("site", site.Name))
	history := spider.NewReqHistoryRepository()

	limit := limiter.RateLimiter(limiter.Spacing(site.Delay))
	if site.Limit != nil {
		limit = limiter.Multi(limit, site.Limit)
	}

	sc := &siteCrawl{
		Crawler:  c,
		site:     site,
		history:  history,
		schedule: NewSchedule(history, logger),
		limit:    limit,
		logger:   logger,
	}
	if site.RespectRobots && c.Robots != nil {
		sc.robots = c.Robots(site)
	}
	if c.Metrics != nil {
		enqueued := c.Metrics.Enqueued.WithLabelValues(site.Name)
		sc.schedule.enqueued = func(*spider.Request) { enqueued.Inc() }
	}

	return sc
}

func (s *siteCrawl) run(ctx context.Context) Stats {
	s.logger.Info("site crawl started",
		zap.Strings("start_urls", s.site.StartURLs),
		zap.Int("workers", s.site.Workers))

	go s.schedule.Schedule(ctx, s.site.Seeds()...)

	var wg sync.WaitGroup
	for i := 0; i < s.site.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx)
		}()
	}
	wg.Wait()

	return s.stats()
}

func (s *siteCrawl) stats() Stats {
	return Stats{
		Site:          s.site.Name,
		Seen:          s.history.Len(),
		Fetched:       s.fetched.Load(),
		Failed:        s.failed.Load(),
		Archived:      s.archived.Load(),
		ImagesMissing: s.imagesMissing.Load(),
		Skipped:       s.skipped.Load(),
	}
}

func (s *siteCrawl) work(ctx context.Context) {
	for {
		req, ok := s.schedule.Pull()
		if !ok {
			return
		}

		s.schedule.Done(s.handle(ctx, req)...)
	}
}

// handle fetches one frontier entry and returns the entries discovered on
// it. Every error ends in the failed state of req, except a stop of the
// crawl before the fetch started, which skips it.
func (s *siteCrawl) handle(ctx context.Context, req *spider.Request) (discovered []*spider.Request) {
	defer func() {
		if err := recover(); err != nil {
			s.logger.Error("worker panicked",
				zap.Any("err", err),
				zap.String("stack", string(debug.Stack())),
				zap.String("url", req.URL))
			s.fail(req, fmt.Errorf("panic: %v", err))
			discovered = nil
		}
	}()

	if ctx.Err() != nil {
		s.skipped.Add(1)
		return nil
	}

	if s.robots != nil && !s.robots.Allowed(ctx, req.URL) {
		s.logger.Debug("skip url disallowed by robots", zap.String("url", req.URL))
		s.skipped.Add(1)
		s.history.AddFailures(req, errRobotsDisallowed)
		return nil
	}

	resp, err := s.fetch(ctx, req)
	if errors.Is(err, errStopped) {
		s.logger.Debug("skip url, crawl stopped", zap.String("url", req.URL))
		s.skipped.Add(1)
		return nil
	}
	if err != nil {
		s.fail(req, err)
		return nil
	}

	s.fetched.Add(1)
	if s.Metrics != nil {
		s.Metrics.Fetched.WithLabelValues(s.site.Name).Inc()
	}

	page, err := spider.NewContext(req, resp)
	if err != nil {
		s.fail(req, err)
		return nil
	}

	if req.Terminal() {
		if err := s.handleRecipe(ctx, page); err != nil {
			s.fail(req, err)
			return nil
		}
	}

	if !req.Follow() {
		return nil
	}

	return page.Links()
}

// fetch waits for the politeness limiter and gets req. Fetches already
// started are not interrupted when the crawl is stopped; the site timeout
// bounds them.
func (s *siteCrawl) fetch(ctx context.Context, req *spider.Request) (*spider.Response, error) {
	if err := s.limit.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errStopped, err)
		}
		return nil, err
	}

	return s.Fetcher.Get(context.WithoutCancel(ctx), req)
}

func (s *siteCrawl) fail(req *spider.Request, err error) {
	s.logger.Error("request failed", zap.String("url", req.URL), zap.Error(err))
	s.history.AddFailures(req, err)
	s.failed.Add(1)
	if s.Metrics != nil {
		s.Metrics.Failed.WithLabelValues(s.site.Name).Inc()
	}
}
