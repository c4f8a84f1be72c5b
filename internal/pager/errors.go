package pager

import "errors"

var (
	// ErrClosed is returned by any Pager method called after Close.
	ErrClosed = errors.New("pager: closed")

	// ErrCorruptHeader is returned when the file header cannot be
	// interpreted as this pager's fixed metadata layout.
	ErrCorruptHeader = errors.New("pager: corrupt header")

	// ErrInvalidSlots is returned when a caller requests a slot count that
	// is odd or smaller than the minimum fanout spec.md §9 allows.
	ErrInvalidSlots = errors.New("pager: slots must be even and >= 4")

	// ErrNoSuchPage is returned by ReadPage/UpdatePage for a page id the
	// pager never allocated.
	ErrNoSuchPage = errors.New("pager: no such page")
)
