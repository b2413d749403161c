package main

import (
	randc "crypto/rand"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ansel1/merry"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	EngineMem  = "mem"
	EngineDisk = "disk"

	FormatHuman = "human"
	FormatJSON  = "json"

	GroupByHost = "host"
	GroupByOSD  = "osd"

	NotSet      = -1
	EmptyString = ""
)

var config struct {
	sizeInput      string
	size           uint64
	blockSizeInput string
	blockSize      uint64
	repeats        int
	threads        int
	multiObject    bool
	engine         string
	dataDir        string

	xattrBench   bool
	xattrThreads int
	key          string
	value        string
	valuePath    string
	nums         int

	streamBench     bool
	pool            string
	groupBy         string
	specificItem    string
	durationSecs    int
	objectSizeInput string
	objectSize      uint64
	adminURL        string

	outputFormat            string
	output                  Output
	enablePrometheusMetrics bool
	seed                    int64
}

func configure() error {
	flag.StringVar(&config.sizeInput, "size", "1MiB", "Total size in bytes to write per cycle")
	flag.StringVar(&config.blockSizeInput, "block-size", "4KiB", "Block size in bytes for each write")
	flag.IntVar(&config.repeats, "repeats", 1, "Number of times to repeat the write cycle")
	flag.IntVar(&config.threads, "threads", 1, "Number of threads to carry out this workload")
	flag.BoolVar(&config.multiObject, "multi-object", false, "Have each thread write to a separate object")
	flag.StringVar(&config.engine, "engine", EngineMem, "Storage engine (mem/disk)")
	flag.StringVar(&config.dataDir, "data-dir", "osbench-data", "Data directory for the disk engine")

	flag.BoolVar(&config.xattrBench, "xattr-bench", false, "Run the attribute-set benchmark")
	flag.IntVar(&config.xattrThreads, "xattr-threads", 1, "Threads for the attribute benchmark")
	flag.StringVar(&config.key, "key", "key", "Attribute key")
	flag.StringVar(&config.value, "value", strings.Repeat("z", 1024), "Attribute value")
	flag.StringVar(&config.valuePath, "value-path", EmptyString, "File to read the attribute value from")
	flag.IntVar(&config.nums, "nums", 1000, "Attribute sets per thread")

	flag.BoolVar(&config.streamBench, "stream-bench", false, "Run the placement-grouped streaming write benchmark")
	flag.StringVar(&config.pool, "pool", EmptyString, "Pool to benchmark")
	flag.StringVar(&config.groupBy, "group-by", GroupByHost, "Failure domain to group objects by (host/osd)")
	flag.StringVar(&config.specificItem, "item", EmptyString, "Restrict the streaming benchmark to one failure domain value")
	flag.IntVar(&config.durationSecs, "duration", 10, "Streaming benchmark duration per failure domain, seconds")
	flag.StringVar(&config.objectSizeInput, "object-size", "4MiB", "Object size for the streaming benchmark")
	flag.StringVar(&config.adminURL, "admin-url", EmptyString, "Cluster admin command endpoint")

	flag.StringVar(&config.outputFormat, "output", FormatHuman, "Output format (human/json)")
	flag.BoolVar(&config.enablePrometheusMetrics, "prometheus", false, "Serve prometheus metrics on :8090")
	flag.Int64Var(&config.seed, "seed", NotSet, "Seed to use in random generator")
	flag.Parse()

	var err error
	if config.size, err = humanize.ParseBytes(config.sizeInput); err != nil {
		return configErrorf("error parsing size: %v", err)
	}
	if config.blockSize, err = humanize.ParseBytes(config.blockSizeInput); err != nil {
		return configErrorf("error parsing block-size: %v", err)
	}
	if config.objectSize, err = humanize.ParseBytes(config.objectSizeInput); err != nil {
		return configErrorf("error parsing object-size: %v", err)
	}
	if err := setParams(); err != nil {
		return err
	}
	if err := selectPrinter(); err != nil {
		return err
	}
	if config.seed == NotSet {
		n, err := randc.Int(randc.Reader, big.NewInt(1<<62))
		if err != nil {
			return ErrRandomness.Here().WithMessagef("seed: %v", err)
		}
		config.seed = n.Int64()
	}
	return nil
}

func setParams() error {
	if config.threads < 1 {
		return configErrorf("thread count must be at least 1")
	}
	if config.repeats < 1 {
		return configErrorf("repeat count must be at least 1")
	}
	if config.blockSize < 1 {
		return configErrorf("block size must be at least 1")
	}
	if config.blockSize > config.size {
		return configErrorf("block size must not be greater than total size")
	}
	if config.engine != EngineMem && config.engine != EngineDisk {
		return configErrorf("unknown engine %q", config.engine)
	}
	if config.engine == EngineDisk && config.dataDir == EmptyString {
		return configErrorf("must specify data-dir with the disk engine")
	}

	if config.xattrBench {
		if config.xattrThreads < 1 {
			return configErrorf("xattr-threads must be at least 1")
		}
		if config.nums < 1 {
			return configErrorf("nums must be at least 1")
		}
		if config.key == EmptyString {
			return configErrorf("attribute key must not be empty")
		}
		return nil
	}

	if config.streamBench {
		if config.pool == EmptyString {
			return configErrorf("must specify pool for the streaming benchmark")
		}
		if config.adminURL == EmptyString {
			return configErrorf("must specify admin-url for the streaming benchmark")
		}
		if config.groupBy != GroupByHost && config.groupBy != GroupByOSD {
			return configErrorf("group-by must be host or osd, got %q", config.groupBy)
		}
		if config.durationSecs < 1 {
			return configErrorf("duration must be at least 1 second")
		}
		if config.blockSize > config.objectSize {
			return configErrorf("block size must not be greater than object size")
		}
		return nil
	}

	// sequential mode partitions the object across threads; every
	// starting offset has to land on a block boundary
	if config.threads > 1 {
		if config.size%uint64(config.threads) != 0 ||
			(config.size/uint64(config.threads))%config.blockSize != 0 {
			return configErrorf("size must partition into %d block-aligned regions", config.threads)
		}
	}
	return nil
}

func selectPrinter() error {
	switch config.outputFormat {
	case FormatHuman:
		config.output = newHumanOutput()
	case FormatJSON:
		config.output = &JSONOutput{}
	default:
		return configErrorf("unknown output format %q", config.outputFormat)
	}
	return nil
}

func run(abort *abortFlag) error {
	be, err := newBackend()
	if err != nil {
		return err
	}
	if err := be.Mkfs(); err != nil {
		return err
	}
	if err := be.Mount(); err != nil {
		return err
	}
	defer func() {
		if err := be.Unmount(); err != nil {
			logrus.WithError(err).Warn("unmount failed")
		}
	}()

	switch {
	case config.xattrBench:
		return runAttrBench(be, abort)
	case config.streamBench:
		resolver := newPlacementResolver(newHTTPMonClient(config.adminURL))
		return runStreamBench(be, resolver, abort)
	default:
		return runWriteBench(be, abort)
	}
}

func main() {
	if err := configure(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
	setMetrics()

	abort := &abortFlag{}
	watchSignals(abort)

	if err := run(abort); err != nil {
		if merry.Is(err, ErrAborted) {
			config.output.reportError("Test aborted")
		} else {
			config.output.reportError(err.Error())
		}
		config.output.finish()
		os.Exit(exitCode(err))
	}
	config.output.finish()
	config.output.report("Exiting successfully.")
}
