package spider

import "sync"

// ReqHistoryRepository is the Seen Set of one crawl run plus the record of
// failed requests. Failed requests are never retried within a run.
type ReqHistoryRepository interface {
	// Visit marks req as seen and reports whether it was new. The check and
	// the insert are one atomic step.
	Visit(req *Request) bool
	HasVisited(req *Request) bool
	AddFailures(req *Request, err error)
	Failures() map[string]error
	Len() int
}

type reqHistory struct {
	visited     map[string]bool
	visitedLock sync.Mutex

	failures    map[string]error // 失败请求id -> 失败原因
	failureLock sync.Mutex
}

func NewReqHistoryRepository() ReqHistoryRepository {
	r := &reqHistory{}
	r.visited = make(map[string]bool, 100)
	r.failures = make(map[string]error, 100)
	return r
}

func (r *reqHistory) Visit(req *Request) bool {
	r.visitedLock.Lock()
	defer r.visitedLock.Unlock()

	unique := req.Unique()
	if r.visited[unique] {
		return false
	}
	r.visited[unique] = true

	return true
}

func (r *reqHistory) HasVisited(req *Request) bool {
	r.visitedLock.Lock()
	defer r.visitedLock.Unlock()

	return r.visited[req.Unique()]
}

func (r *reqHistory) Len() int {
	r.visitedLock.Lock()
	defer r.visitedLock.Unlock()

	return len(r.visited)
}

func (r *reqHistory) AddFailures(req *Request, err error) {
	r.failureLock.Lock()
	defer r.failureLock.Unlock()

	r.failures[req.Unique()] = err
}

func (r *reqHistory) Failures() map[string]error {
	r.failureLock.Lock()
	defer r.failureLock.Unlock()

	out := make(map[string]error, len(r.failures))
	for k, v := range r.failures {
		out[k] = v
	}

	return out
}
