package diagnostics

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// ErrSinkClosed is returned by a second Close.
var ErrSinkClosed = errors.New("diagnostics: sink already closed")

type Sink interface {
	// Log queues line for writing. It never blocks on I/O.
	Log(line string)
	// Close flushes queued lines and waits for the writer to finish.
	Close() error
}

// Nop discards every line.
type Nop struct{}

func (Nop) Log(string)   {}
func (Nop) Close() error { return nil }

// FileSink writes lines to an io.Writer from one dedicated goroutine.
type FileSink struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []string
	closed bool

	out     *bufio.Writer
	closer  io.Closer
	done    chan struct{}
	err     error
	written atomic.Uint64
	dropped atomic.Uint64
}

// OpenFile appends to path, creating it when needed.
func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return NewFileSink(f), nil
}

// NewFileSink starts the writer goroutine. When w is an io.Closer it is
// closed by Close.
func NewFileSink(w io.Writer) *FileSink {
	s := &FileSink{
		out:  bufio.NewWriter(w),
		done: make(chan struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	s.cond = sync.NewCond(&s.mu)
	go s.drain()
	return s
}

func (s *FileSink) Log(line string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.dropped.Add(1)
		return
	}
	s.queue = append(s.queue, line)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()

	<-s.done
	return s.err
}

// Written returns the number of lines handed to the underlying writer.
func (s *FileSink) Written() uint64 { return s.written.Load() }

// Dropped returns the number of lines rejected after Close.
func (s *FileSink) Dropped() uint64 { return s.dropped.Load() }

func (s *FileSink) drain() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		batch := s.queue
		s.queue = nil
		closed := s.closed
		s.mu.Unlock()

		for _, line := range batch {
			if s.err != nil {
				break
			}
			if _, err := s.out.WriteString(line); err != nil {
				s.err = err
				break
			}
			if err := s.out.WriteByte('\n'); err != nil {
				s.err = err
				break
			}
			s.written.Add(1)
		}
		if err := s.out.Flush(); err != nil && s.err == nil {
			s.err = err
		}

		if closed && len(batch) == 0 {
			break
		}
	}

	if s.closer != nil {
		if err := s.closer.Close(); err != nil && s.err == nil {
			s.err = err
		}
	}
}
