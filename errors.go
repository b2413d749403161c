package main

import (
	"github.com/ansel1/merry"
)

// Error classes. Every failure in the tool belongs to exactly one of these,
// so the top level can pick an exit code without string matching.
var (
	ErrConfig     = merry.New("invalid configuration")
	ErrAdminQuery = merry.New("admin query failed")
	ErrBackendOp  = merry.New("backend operation failed")
	ErrRandomness = merry.New("entropy source is not random")
	ErrAborted    = merry.New("aborted by signal")
)

const (
	exitAborted = 1
	exitFatal   = 2
	exitUsage   = 3
)

func exitCode(err error) int {
	switch {
	case merry.Is(err, ErrAborted):
		return exitAborted
	case merry.Is(err, ErrConfig):
		return exitUsage
	default:
		return exitFatal
	}
}

func configErrorf(format string, args ...interface{}) error {
	return ErrConfig.Here().WithMessagef(format, args...)
}

func adminErrorf(format string, args ...interface{}) error {
	return ErrAdminQuery.Here().WithMessagef(format, args...)
}

func backendErrorf(format string, args ...interface{}) error {
	return ErrBackendOp.Here().WithMessagef(format, args...)
}
