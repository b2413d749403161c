package main

import (
	"os"
	"path/filepath"
	"sync"

	"osbench/ops"
)

// diskStore keeps each collection as a directory and each object as a
// file; attributes map to user xattrs. Same committer-goroutine commit
// model as memStore.
type diskStore struct {
	dir string

	mu      sync.Mutex
	mounted bool

	queue sync.WaitGroup
	ch    chan queuedBatch
}

func newDiskStore(dir string) *diskStore {
	return &diskStore{dir: dir}
}

// Mkfs creates the data directory, or refuses to reuse one that already
// holds data.
func (s *diskStore) Mkfs() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return backendErrorf("create data directory: %v", err)
		}
		return nil
	}
	if err != nil {
		return backendErrorf("check data directory: %v", err)
	}
	if len(entries) > 0 {
		return backendErrorf("data directory %q is not empty, clean it first", s.dir)
	}
	return nil
}

func (s *diskStore) Mount() error {
	if _, err := os.Stat(s.dir); err != nil {
		return backendErrorf("mount %q: %v", s.dir, err)
	}
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

func (s *diskStore) Unmount() error {
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

func (s *diskStore) CreateCollection(coll string) error {
	if err := os.MkdirAll(filepath.Join(s.dir, coll), 0755); err != nil {
		return backendErrorf("create collection %q: %v", coll, err)
	}
	return nil
}

func (s *diskStore) Queue(coll string, txns ...*Transaction) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return backendErrorf("queue on unmounted store")
	}
	s.mu.Unlock()
	s.ch <- queuedBatch{coll: coll, txns: txns}
	return nil
}

func (s *diskStore) committer() {
	defer s.queue.Done()
	for batch := range s.ch {
		var batchErr error
		for _, t := range batch.txns {
			if batchErr == nil {
				batchErr = s.apply(batch.coll, t)
			}
			if t.onCommit != nil {
				t.onCommit.Signal(batchErr)
			}
		}
	}
}

func (s *diskStore) apply(coll string, t *Transaction) error {
	for _, op := range t.ops {
		path := filepath.Join(s.dir, coll, op.object)
		var err error
		switch op.kind {
		case opTouch:
			err = touchFile(path)
		case opWrite:
			err = writeFileAt(path, op.offset, op.data)
		case opSetAttr:
			if err = touchFile(path); err == nil {
				err = ops.Setxattr(path, "user.osbench."+op.key, op.value, 0)
			}
		case opRemove:
			err = os.Remove(path)
			if os.IsNotExist(err) {
				err = nil
			}
		}
		if err != nil {
			return backendErrorf("%s: %v", op.object, err)
		}
	}
	return nil
}

func touchFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func writeFileAt(path string, offset uint64, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = f.WriteAt(data, int64(offset))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}
