package storage

import (
	"sync"

	"github.com/conorfennell/studylib/internal/domain"
)

// AppDataWriter is the durable-write side of the store.
type AppDataWriter interface {
	SaveAppData(domain.AppData) error
}

// Saver serializes asynchronous durable writes of AppData: at most one write
// is in flight, and snapshots requested while a write runs are coalesced so
// only the latest is written next. This keeps two saves from interleaving
// and overwriting each other's output.
//
// The write outcome is reported through the notify callback; in-memory state
// stays authoritative regardless, and failed writes are not retried.
type Saver struct {
	store  AppDataWriter
	notify func(error)

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight bool
	pending  *domain.AppData
}

// NewSaver creates a Saver. notify may be nil.
func NewSaver(store AppDataWriter, notify func(error)) *Saver {
	s := &Saver{store: store, notify: notify}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Save requests an asynchronous durable write of the snapshot. If a write is
// already running the snapshot replaces any previously queued one.
func (s *Saver) Save(data domain.AppData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		s.pending = &data
		return
	}
	s.inFlight = true
	go s.run(data)
}

func (s *Saver) run(data domain.AppData) {
	for {
		err := s.store.SaveAppData(data)
		if s.notify != nil {
			s.notify(err)
		}

		s.mu.Lock()
		if s.pending != nil {
			data = *s.pending
			s.pending = nil
			s.mu.Unlock()
			continue
		}
		s.inFlight = false
		s.cond.Broadcast()
		s.mu.Unlock()
		return
	}
}

// Flush blocks until no write is in flight and nothing is queued.
func (s *Saver) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inFlight {
		s.cond.Wait()
	}
}
