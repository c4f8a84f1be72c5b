package bptree

import "errors"

var (
	// ErrKeyTooLong is returned when a caller passes a key whose content
	// exceeds pager.KeyLen-1 bytes; callers that want truncation instead
	// should pre-truncate with pager.NewKey.
	ErrKeyTooLong = errors.New("bptree: key exceeds maximum length")

	// ErrClosed is returned by any Tree method called after Close.
	ErrClosed = errors.New("bptree: closed")

	// ErrNotFound is returned by Erase when the exact (key, payload) pair
	// is not present in the tree.
	ErrNotFound = errors.New("bptree: entry not found")
)
