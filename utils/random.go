package utils

import (
	"bytes"
	randc "crypto/rand"
	"errors"
)

// FillRandom fills buf from the system entropy source.
func FillRandom(buf []byte) error {
	_, err := randc.Read(buf)
	return err
}

// TwoRandomBuffers returns two independently filled random buffers of n
// bytes, failing if they compare equal. Equal buffers mean the entropy
// source is degenerate and any benchmark built on them would measure
// cache effects instead of writes.
func TwoRandomBuffers(n uint64) ([]byte, []byte, error) {
	a := make([]byte, n)
	b := make([]byte, n)
	if err := FillRandom(a); err != nil {
		return nil, nil, err
	}
	if err := FillRandom(b); err != nil {
		return nil, nil, err
	}
	if bytes.Equal(a, b) {
		return nil, nil, errors.New("two random buffers compare equal")
	}
	return a, b, nil
}
