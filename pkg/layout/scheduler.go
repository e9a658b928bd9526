package layout

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/nodeformat/pkg/graph"
)

// Request is a pending format request. All requests the whole graph; Node is
// ignored then.
type Request struct {
	Node graph.NodeID `json:"node,omitempty"`
	All  bool         `json:"all,omitempty"`
}

// Scheduler queues format requests for a graph whose node sizes arrive over
// time. Each Tick runs the queued requests; those still waiting for sizes
// stay queued for the next one.
type Scheduler struct {
	engine *Engine
	graph  *graph.Graph

	mu      sync.Mutex
	pending []Request
}

// NewScheduler returns a scheduler running requests against g with e.
func NewScheduler(e *Engine, g *graph.Graph) *Scheduler {
	return &Scheduler{engine: e, graph: g}
}

// Enqueue adds r unless an equal request is already pending. It reports
// whether r was added.
func (s *Scheduler) Enqueue(r Request) bool {
	if r.All {
		r.Node = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.pending, r) {
		return false
	}
	s.pending = append(s.pending, r)
	return true
}

// Pending returns the queued requests in order.
func (s *Scheduler) Pending() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// Cancel drops every queued request and returns how many there were.
func (s *Scheduler) Cancel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	s.pending = nil
	return n
}

// Tick runs the queued requests in order and returns the results of those
// that completed. Requests that were deferred stay queued. Tick stops early,
// leaving the rest queued, when ctx is done or a request fails.
func (s *Scheduler) Tick(ctx context.Context) ([]*Result, error) {
	s.mu.Lock()
	queue := s.pending
	s.pending = nil
	s.mu.Unlock()

	var done []*Result
	var keep []Request
	requeue := func(rest []Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Requests enqueued while running go after the ones carried over.
		merged := append(keep, rest...)
		for _, r := range s.pending {
			if !slices.Contains(merged, r) {
				merged = append(merged, r)
			}
		}
		s.pending = merged
	}

	for i, r := range queue {
		if err := ctx.Err(); err != nil {
			requeue(queue[i:])
			return done, err
		}
		deferred, results, err := s.run(ctx, r)
		if err != nil {
			requeue(queue[i+1:])
			return done, err
		}
		done = append(done, results...)
		if deferred {
			keep = append(keep, r)
		}
	}
	requeue(nil)
	return done, nil
}

func (s *Scheduler) run(ctx context.Context, r Request) (bool, []*Result, error) {
	if r.All {
		batch, err := s.engine.FormatAll(ctx, s.graph)
		if err != nil {
			return false, nil, err
		}
		var completed []*Result
		for _, res := range batch.Results {
			if res.Status != StatusDeferred {
				completed = append(completed, res)
			}
		}
		return len(batch.Deferred()) > 0, completed, nil
	}
	res, err := s.engine.Format(ctx, s.graph, r.Node)
	if err != nil {
		return false, nil, err
	}
	if res.Status == StatusDeferred {
		return true, nil, nil
	}
	return false, []*Result{res}, nil
}
