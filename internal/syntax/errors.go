package syntax

import "errors"

// Grammar validation errors.
var (
	// ErrMultipleFreeSlots indicates a part declared more than one
	// angle-bracketed alternative.
	ErrMultipleFreeSlots = errors.New("syntax: part declares more than one free slot")

	// ErrEmptyFreeSlot indicates a free slot with no name ("<>").
	ErrEmptyFreeSlot = errors.New("syntax: free slot has no name")
)
