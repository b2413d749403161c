package main

import (
	"sort"
	"time"
)

const maxBarSize = 30

// Bucket spans one decimal order-of-magnitude range: LowerNs is the
// sample truncated to its leading decimal digit.
type Bucket struct {
	LowerNs uint64        `json:"lower_ns"`
	Count   int           `json:"count"`
	Total   time.Duration `json:"total_ns"`
}

type Breakdown struct {
	Min           time.Duration `json:"min_ns"`
	Max           time.Duration `json:"max_ns"`
	TotalTime     time.Duration `json:"total_ns"`
	Count         int           `json:"count"`
	Threads       int           `json:"threads"`
	MaxCount      int           `json:"-"`
	Buckets       []Bucket      `json:"buckets"`
	AvgIops       float64       `json:"avg_iops"`
	AvgLatencyMs  float64       `json:"avg_latency_ms"`
	PerThreadIops float64       `json:"per_thread_iops,omitempty"`
}

// bucketLower finds the smallest power of ten above nsec and truncates
// nsec to a multiple of a tenth of it.
func bucketLower(nsec uint64) uint64 {
	baserange := uint64(10)
	for nsec >= baserange {
		baserange *= 10
	}
	baserange /= 10
	if baserange == 0 {
		baserange = 1
	}
	return nsec / baserange * baserange
}

func buildBreakdown(samples []time.Duration, threads int) *Breakdown {
	b := &Breakdown{Threads: threads, Count: len(samples)}
	if len(samples) == 0 {
		return b
	}

	b.Min = samples[0]
	byLower := make(map[uint64]*Bucket)
	for _, d := range samples {
		b.TotalTime += d
		if d > b.Max {
			b.Max = d
		}
		if d < b.Min {
			b.Min = d
		}

		lower := bucketLower(uint64(d.Nanoseconds()))
		bucket, ok := byLower[lower]
		if !ok {
			bucket = &Bucket{LowerNs: lower}
			byLower[lower] = bucket
		}
		bucket.Count++
		bucket.Total += d
		if bucket.Count > b.MaxCount {
			b.MaxCount = bucket.Count
		}
	}

	b.Buckets = make([]Bucket, 0, len(byLower))
	for _, bucket := range byLower {
		b.Buckets = append(b.Buckets, *bucket)
	}
	sort.Slice(b.Buckets, func(i, j int) bool { return b.Buckets[i].LowerNs < b.Buckets[j].LowerNs })

	seconds := b.TotalTime.Seconds()
	b.AvgIops = float64(b.Count*b.Threads) / seconds
	b.AvgLatencyMs = durationMs(b.TotalTime) / float64(b.Count)
	if b.Threads > 1 {
		b.PerThreadIops = float64(b.Count) / seconds
	}
	return b
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// WriteTotals summarizes a fixed-size sequential-write run.
type WriteTotals struct {
	Bytes     uint64        `json:"bytes"`
	BlockSize uint64        `json:"block_size"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Rate      uint64        `json:"bytes_per_second"`
	Iops      uint64        `json:"iops"`
}

func newWriteTotals(bytes, blockSize uint64, elapsed time.Duration) *WriteTotals {
	t := &WriteTotals{Bytes: bytes, BlockSize: blockSize, Elapsed: elapsed}
	if elapsed > 0 {
		t.Rate = uint64(float64(bytes) / elapsed.Seconds())
		t.Iops = uint64(float64(bytes/blockSize) / elapsed.Seconds())
	}
	return t
}

// AttrTotals summarizes an attribute-set run.
type AttrTotals struct {
	Elapsed   time.Duration `json:"elapsed_ns"`
	Entries   int           `json:"entries"`
	PerOp     time.Duration `json:"per_op_ns"`
	KeySize   int           `json:"key_size"`
	ValueSize int           `json:"value_size"`
	Threads   int           `json:"threads"`
}

func newAttrTotals(elapsed time.Duration, entries, keySize, valueSize, threads int) *AttrTotals {
	t := &AttrTotals{
		Elapsed:   elapsed,
		Entries:   entries,
		KeySize:   keySize,
		ValueSize: valueSize,
		Threads:   threads,
	}
	if entries > 0 {
		t.PerOp = elapsed / time.Duration(entries)
	}
	return t
}
