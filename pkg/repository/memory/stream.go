package memory

import (
	"context"
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/m-mizutani/goerr/v2"
)

var errStreamClosed = goerr.New("stream closed")

type stream struct {
	owner *Memory
	match func(*alert.Alert) bool

	mu     sync.Mutex
	queue  []alert.Alert
	err    error
	closed bool
	signal chan struct{}
}

func newStream(owner *Memory, match func(*alert.Alert) bool) *stream {
	return &stream{
		owner:  owner,
		match:  match,
		signal: make(chan struct{}, 1),
	}
}

func (s *stream) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *stream) push(a *alert.Alert) {
	s.mu.Lock()
	if s.closed || s.err != nil {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, a.Copy())
	s.mu.Unlock()
	s.notify()
}

func (s *stream) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.notify()
}

func (s *stream) Next(ctx context.Context) (*alert.Alert, error) {
	for {
		s.mu.Lock()
		switch {
		case s.closed:
			s.mu.Unlock()
			return nil, errStreamClosed
		case len(s.queue) > 0:
			row := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return &row, nil
		case s.err != nil:
			err := s.err
			s.mu.Unlock()
			return nil, goerr.Wrap(err, "realtime feed broken")
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.signal:
		}
	}
}

func (s *stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.owner.unsubscribe(s)
	s.notify()
}
