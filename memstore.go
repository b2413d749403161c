package main

import (
	"sync"
	"sync/atomic"
	"time"
)

type memObject struct {
	data  []byte
	attrs map[string][]byte
}

type memWrite struct {
	object  string
	offset  uint64
	payload []byte
}

type queuedBatch struct {
	coll string
	txns []*Transaction
}

// memStore is an in-memory backend. Commits run on a dedicated committer
// goroutine so completion delivery is genuinely asynchronous relative to
// the queueing worker.
type memStore struct {
	mu      sync.Mutex
	mounted bool
	colls   map[string]map[string]*memObject

	queue sync.WaitGroup
	ch    chan queuedBatch

	commitDelay time.Duration
	commitErr   error

	writes    int64
	recordLog bool
	writeLog  []memWrite
}

func newMemStore() *memStore {
	return &memStore{
		colls: make(map[string]map[string]*memObject),
	}
}

func (s *memStore) Mkfs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colls = make(map[string]map[string]*memObject)
	return nil
}

func (s *memStore) Mount() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted {
		return backendErrorf("already mounted")
	}
	s.mounted = true
	s.ch = make(chan queuedBatch, 128)
	s.queue.Add(1)
	go s.committer()
	return nil
}

func (s *memStore) Unmount() error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return backendErrorf("not mounted")
	}
	s.mounted = false
	s.mu.Unlock()
	close(s.ch)
	s.queue.Wait()
	return nil
}

func (s *memStore) CreateCollection(coll string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colls[coll]; !ok {
		s.colls[coll] = make(map[string]*memObject)
	}
	return nil
}

func (s *memStore) Queue(coll string, txns ...*Transaction) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return backendErrorf("queue on unmounted store")
	}
	if _, ok := s.colls[coll]; !ok {
		s.mu.Unlock()
		return backendErrorf("no such collection %q", coll)
	}
	s.mu.Unlock()
	s.ch <- queuedBatch{coll: coll, txns: txns}
	return nil
}

func (s *memStore) committer() {
	defer s.queue.Done()
	for batch := range s.ch {
		var batchErr error
		for _, t := range batch.txns {
			if batchErr == nil {
				batchErr = s.apply(batch.coll, t)
			}
			if t.onCommit != nil {
				if s.commitDelay > 0 {
					time.Sleep(s.commitDelay)
				}
				t.onCommit.Signal(batchErr)
			}
		}
	}
}

func (s *memStore) apply(coll string, t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	objects := s.colls[coll]
	for _, op := range t.ops {
		switch op.kind {
		case opTouch:
			s.ensure(objects, op.object)
		case opWrite:
			obj := s.ensure(objects, op.object)
			end := op.offset + uint64(len(op.data))
			if uint64(len(obj.data)) < end {
				grown := make([]byte, end)
				copy(grown, obj.data)
				obj.data = grown
			}
			copy(obj.data[op.offset:end], op.data)
			atomic.AddInt64(&s.writes, 1)
			if s.recordLog {
				logged := make([]byte, len(op.data))
				copy(logged, op.data)
				s.writeLog = append(s.writeLog, memWrite{op.object, op.offset, logged})
			}
		case opSetAttr:
			obj := s.ensure(objects, op.object)
			value := make([]byte, len(op.value))
			copy(value, op.value)
			obj.attrs[op.key] = value
		case opRemove:
			delete(objects, op.object)
		}
	}
	return nil
}

func (s *memStore) ensure(objects map[string]*memObject, name string) *memObject {
	obj, ok := objects[name]
	if !ok {
		obj = &memObject{attrs: make(map[string][]byte)}
		objects[name] = obj
	}
	return obj
}

func (s *memStore) writeCount() int64 {
	return atomic.LoadInt64(&s.writes)
}

func (s *memStore) object(coll, name string) *memObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colls[coll][name]
}

// failCommits makes every subsequent commit report err.
func (s *memStore) failCommits(err error) {
	s.mu.Lock()
	s.commitErr = err
	s.mu.Unlock()
}
