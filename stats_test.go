package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketLower(t *testing.T) {
	cases := []struct{ in, want uint64 }{
		{0, 0},
		{5, 5},
		{9, 9},
		{10, 10},
		{11, 10},
		{94321, 90000},
		{999999, 900000},
		{1000000, 1000000},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, bucketLower(c.in), "bucketLower(%d)", c.in)
	}
}

func TestBreakdownSyntheticSamples(t *testing.T) {
	samples := []time.Duration{
		time.Millisecond,
		time.Millisecond,
		10 * time.Millisecond,
		100 * time.Millisecond,
	}
	b := buildBreakdown(samples, 1)

	assert.Equal(t, time.Millisecond, b.Min)
	assert.Equal(t, 100*time.Millisecond, b.Max)
	assert.Equal(t, 112*time.Millisecond, b.TotalTime)

	require.Len(t, b.Buckets, 3)
	assert.Equal(t, uint64(1e6), b.Buckets[0].LowerNs)
	assert.Equal(t, 2, b.Buckets[0].Count)
	assert.Equal(t, uint64(1e7), b.Buckets[1].LowerNs)
	assert.Equal(t, 1, b.Buckets[1].Count)
	assert.Equal(t, uint64(1e8), b.Buckets[2].LowerNs)
	assert.Equal(t, 1, b.Buckets[2].Count)
	assert.Equal(t, 2, b.MaxCount)

	assert.InDelta(t, 28.0, b.AvgLatencyMs, 1e-9)
	assert.InDelta(t, 4.0/0.112, b.AvgIops, 1e-6)
	assert.Zero(t, b.PerThreadIops)
}

func TestBreakdownPerThreadIops(t *testing.T) {
	samples := []time.Duration{time.Second, time.Second, time.Second, time.Second}
	b := buildBreakdown(samples, 2)
	assert.InDelta(t, 2.0, b.AvgIops, 1e-9)
	assert.InDelta(t, 1.0, b.PerThreadIops, 1e-9)
}

func TestBreakdownEmpty(t *testing.T) {
	b := buildBreakdown(nil, 4)
	assert.Zero(t, b.Count)
	assert.Empty(t, b.Buckets)
}

func TestWriteTotals(t *testing.T) {
	tot := newWriteTotals(1<<20, 4096, time.Second)
	assert.Equal(t, uint64(1<<20), tot.Rate)
	assert.Equal(t, uint64(256), tot.Iops)
}

func TestAttrTotals(t *testing.T) {
	tot := newAttrTotals(2*time.Second, 2000, 3, 1024, 2)
	assert.Equal(t, time.Millisecond, tot.PerOp)
	assert.Equal(t, 2000, tot.Entries)
}
