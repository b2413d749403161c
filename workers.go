package main

import (
	"fmt"
	"math/rand"
	"time"

	"osbench/utils"
)

func fillPayload(buf []byte) error {
	if err := utils.FillRandom(buf); err != nil {
		return ErrRandomness.Here().WithMessagef("fill payload: %v", err)
	}
	return nil
}

// streamPayloads builds the two alternating payload buffers for the
// streaming workload, failing fast on a degenerate entropy source.
func streamPayloads(blockSize uint64) ([2][]byte, error) {
	a, b, err := utils.TwoRandomBuffers(blockSize)
	if err != nil {
		return [2][]byte{}, ErrRandomness.Here().WithMessagef("%v", err)
	}
	return [2][]byte{a, b}, nil
}

type writeSettings struct {
	size      uint64
	blockSize uint64
	repeats   int
}

type streamSettings struct {
	objectSize uint64
	blockSize  uint64
	duration   time.Duration
}

type attrSettings struct {
	key   string
	value []byte
	nums  int
}

// seqWriteWorker partitions size into block-sized writes starting at
// startingOffset (wrapping modulo size), batches them into one
// transaction set per repeat cycle and blocks on a completion attached to
// the final transaction. Earlier transactions in the batch are committed
// ordered-before the final one by the backend contract.
func seqWriteWorker(be Backend, coll, object string, s writeSettings, startingOffset uint64, payload []byte, abort *abortFlag, samples *[]time.Duration) error {
	for cycle := 0; cycle < s.repeats; cycle++ {
		if abort.isSet() {
			return ErrAborted.Here()
		}
		p(fmt.Sprintf("Write cycle %d\n", cycle))
		offset := startingOffset
		remaining := s.size

		var txns []*Transaction
		for remaining > 0 {
			count := s.blockSize
			if remaining < count {
				count = remaining
			}
			t := &Transaction{}
			t.WriteAt(object, offset, payload[:count])
			txns = append(txns, t)

			offset += count
			if offset >= s.size {
				offset -= s.size
			}
			remaining -= count
		}

		done := NewCompletion()
		txns[len(txns)-1].RegisterOnCommit(done)

		start := time.Now()
		if err := be.Queue(coll, txns...); err != nil {
			return err
		}
		if err := done.Wait(); err != nil {
			return ErrBackendOp.Here().WithMessagef("commit cycle %d: %v", cycle, err)
		}
		elapsed := time.Since(start)
		*samples = append(*samples, elapsed)
		observeOp("write", elapsed, nil)
	}
	return nil
}

// streamWriteWorker issues block writes at pseudo-random offsets against
// pseudo-randomly chosen objects from names until the deadline passes,
// alternating between two payload buffers by parity of the operation
// count. Recorded durations are cumulative: each spans from the end of
// the previous operation to the end of the current one, so queueing gaps
// between operations are folded into the sample.
func streamWriteWorker(be Backend, coll string, s streamSettings, names []string, bufs [2][]byte, rng *rand.Rand, abort *abortFlag, samples *[]time.Duration) error {
	// idempotent setup: drop whatever a previous run left behind
	for _, name := range names {
		t := &Transaction{}
		t.Remove(name)
		done := NewCompletion()
		t.RegisterOnCommit(done)
		if err := be.Queue(coll, t); err != nil {
			return err
		}
		if err := done.Wait(); err != nil {
			return ErrBackendOp.Here().WithMessagef("remove %s: %v", name, err)
		}
	}

	blocks := int64(s.objectSize / s.blockSize)
	b := time.Now()
	stop := b.Add(s.duration)
	for !b.After(stop) {
		if abort.isSet() {
			return ErrAborted.Here()
		}
		payload := bufs[len(*samples)%2]
		object := names[rng.Intn(len(names))]
		offset := s.blockSize * uint64(rng.Int63n(blocks))

		t := &Transaction{}
		t.WriteAt(object, offset, payload)
		done := NewCompletion()
		t.RegisterOnCommit(done)
		if err := be.Queue(coll, t); err != nil {
			return err
		}
		if err := done.Wait(); err != nil {
			return ErrBackendOp.Here().WithMessagef("write %s: %v", object, err)
		}

		b2 := time.Now()
		elapsed := b2.Sub(b)
		*samples = append(*samples, elapsed)
		observeOp("write", elapsed, nil)
		b = b2
	}
	return nil
}

// attrWorker repeatedly sets one attribute on object, blocking on its own
// completion each time.
func attrWorker(be Backend, coll, object string, s attrSettings, abort *abortFlag, samples *[]time.Duration) error {
	for i := 0; i < s.nums; i++ {
		if abort.isSet() {
			return ErrAborted.Here()
		}
		t := &Transaction{}
		t.SetAttr(object, s.key, s.value)
		done := NewCompletion()
		t.RegisterOnCommit(done)

		start := time.Now()
		if err := be.Queue(coll, t); err != nil {
			return err
		}
		if err := done.Wait(); err != nil {
			return ErrBackendOp.Here().WithMessagef("setattr %s: %v", object, err)
		}
		elapsed := time.Since(start)
		*samples = append(*samples, elapsed)
		observeOp("setattr", elapsed, nil)
	}
	return nil
}
