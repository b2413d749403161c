package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1536 B"}, // half a KB left over, do not promote
		{4096, "4 KB"},
		{1047552, "1023 KB"},
		{1048576, "1 MB"},
		{1049600, "1025 KB"},
		{2097152, "2 MB"},
		{1 << 30, "1 GB"},
		{1 << 40, "1 TB"},
		{1 << 50, "1 PB"},
		{1 << 60, "1 EB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatBytes(c.in), "formatBytes(%d)", c.in)
	}
}

func TestFormatBytesLossAboveThreshold(t *testing.T) {
	// above 2^20 remainders are dropped
	assert.Equal(t, "2 MB", formatBytes(2097152+512))
}
