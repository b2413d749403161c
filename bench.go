package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ansel1/merry"
	"github.com/sirupsen/logrus"
)

const defaultCollection = "osbench"

type abortFlag struct {
	v atomic.Bool
}

func (f *abortFlag) set() {
	f.v.Store(true)
}

func (f *abortFlag) isSet() bool {
	return f.v.Load()
}

// watchSignals is the only place OS signals are observed. Workers never
// receive them; they poll the flag between operations, so shutdown is
// always cooperative and consistent.
func watchSignals(abort *abortFlag) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-c
		logrus.WithField("signal", s).Warn("abort requested")
		abort.set()
	}()
}

// runWorkers spawns exactly threads goroutines, joins them all, and
// merges their private sample sequences. elapsed covers the full
// spawn-to-join wall clock.
func runWorkers(threads int, fn func(i int, samples *[]time.Duration) error) ([]time.Duration, time.Duration, error) {
	per := make([][]time.Duration, threads)
	errs := make([]error, threads)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(i, &per[i])
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	var all []time.Duration
	for _, samples := range per {
		all = append(all, samples...)
	}

	// a real failure explains the run better than the abort it triggered
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if firstErr == nil || (merry.Is(firstErr, ErrAborted) && !merry.Is(err, ErrAborted)) {
			firstErr = err
		}
	}
	return all, elapsed, firstErr
}

func touchObjects(be Backend, coll string, objects []string) error {
	for _, object := range objects {
		t := &Transaction{}
		t.Touch(object)
		done := NewCompletion()
		t.RegisterOnCommit(done)
		if err := be.Queue(coll, t); err != nil {
			return err
		}
		if err := done.Wait(); err != nil {
			return ErrBackendOp.Here().WithMessagef("touch %s: %v", object, err)
		}
	}
	return nil
}

// removeObjects is best-effort cleanup, used on success and failure paths
// alike.
func removeObjects(be Backend, coll string, objects []string) {
	t := &Transaction{}
	for _, object := range objects {
		t.Remove(object)
	}
	done := NewCompletion()
	t.RegisterOnCommit(done)
	if err := be.Queue(coll, t); err != nil {
		logrus.WithError(err).Warn("cleanup: queue remove failed")
		return
	}
	if err := done.Wait(); err != nil {
		logrus.WithError(err).Warn("cleanup: remove failed")
	}
}

func runWriteBench(be Backend, abort *abortFlag) error {
	s := writeSettings{
		size:      config.size,
		blockSize: config.blockSize,
		repeats:   config.repeats,
	}
	if err := be.CreateCollection(defaultCollection); err != nil {
		return err
	}

	var objects []string
	if config.multiObject {
		for i := 0; i < config.threads; i++ {
			objects = append(objects, fmt.Sprintf("osbench-thread-%d", i))
		}
	} else {
		objects = []string{"osbench"}
	}
	if err := touchObjects(be, defaultCollection, objects); err != nil {
		return err
	}
	defer removeObjects(be, defaultCollection, objects)

	logrus.WithFields(logrus.Fields{
		"size":       formatBytes(s.size),
		"block-size": formatBytes(s.blockSize),
		"repeats":    s.repeats,
		"threads":    config.threads,
	}).Info("writing")

	samples, elapsed, err := runWorkers(config.threads, func(i int, samples *[]time.Duration) error {
		object := objects[0]
		if config.multiObject {
			object = objects[i]
		}
		payload := make([]byte, s.blockSize)
		if err := fillPayload(payload); err != nil {
			return err
		}
		startingOffset := uint64(i) * s.size / uint64(config.threads)
		return seqWriteWorker(be, defaultCollection, object, s, startingOffset, payload, abort, samples)
	})
	if err != nil {
		return err
	}

	total := s.size * uint64(s.repeats) * uint64(config.threads)
	config.output.printBreakdown(buildBreakdown(samples, config.threads))
	config.output.printWriteTotals(newWriteTotals(total, s.blockSize, elapsed))
	return nil
}

func runAttrBench(be Backend, abort *abortFlag) error {
	value := []byte(config.value)
	if config.valuePath != "" {
		fileValue, err := os.ReadFile(config.valuePath)
		if err != nil {
			return configErrorf("read value file: %v", err)
		}
		value = fileValue
	}
	s := attrSettings{key: config.key, value: value, nums: config.nums}

	if err := be.CreateCollection(defaultCollection); err != nil {
		return err
	}
	objects := make([]string, config.xattrThreads)
	for i := range objects {
		objects[i] = fmt.Sprintf("xattrbench-thread-%d", i)
	}
	if err := touchObjects(be, defaultCollection, objects); err != nil {
		return err
	}
	defer removeObjects(be, defaultCollection, objects)

	samples, elapsed, err := runWorkers(config.xattrThreads, func(i int, samples *[]time.Duration) error {
		return attrWorker(be, defaultCollection, objects[i], s, abort, samples)
	})
	if err != nil {
		return err
	}

	config.output.printBreakdown(buildBreakdown(samples, config.xattrThreads))
	config.output.printAttrTotals(newAttrTotals(
		elapsed, s.nums*config.xattrThreads, len(s.key), len(value), config.xattrThreads))
	return nil
}

func runStreamBench(be Backend, resolver *PlacementResolver, abort *abortFlag) error {
	poolSize, err := resolver.PoolSize(config.pool)
	if err != nil {
		return err
	}
	if poolSize != 1 {
		return configErrorf("pool %q has size %d, placement discovery requires size 1", config.pool, poolSize)
	}

	config.output.report("Finding object names")
	groups, err := resolver.GroupNames(config.pool, config.groupBy, config.specificItem, config.threads)
	if err != nil {
		return err
	}

	if err := be.CreateCollection(config.pool); err != nil {
		return err
	}

	items := make([]string, 0, len(groups))
	for item := range groups {
		items = append(items, item)
	}
	sort.Strings(items)

	for _, item := range items {
		if abort.isSet() {
			return ErrAborted.Here()
		}
		config.output.report(fmt.Sprintf("Benching %s %s", config.groupBy, item))
		if err := benchStreamGroup(be, config.pool, groups[item], abort); err != nil {
			return err
		}
	}
	return nil
}

// benchStreamGroup runs the duration-bound random-write workload over one
// failure domain's name set, namesPerThread names per worker.
func benchStreamGroup(be Backend, coll string, names []string, abort *abortFlag) error {
	s := streamSettings{
		objectSize: config.objectSize,
		blockSize:  config.blockSize,
		duration:   time.Duration(config.durationSecs) * time.Second,
	}

	defer removeObjects(be, coll, names)

	samples, _, err := runWorkers(config.threads, func(i int, samples *[]time.Duration) error {
		bufs, err := streamPayloads(s.blockSize)
		if err != nil {
			return err
		}
		rng := rand.New(rand.NewSource(config.seed + int64(i)))
		workerNames := names[i*namesPerThread : (i+1)*namesPerThread]
		return streamWriteWorker(be, coll, s, workerNames, bufs, rng, abort, samples)
	})
	if err != nil {
		return err
	}

	config.output.printBreakdown(buildBreakdown(samples, config.threads))
	return nil
}
