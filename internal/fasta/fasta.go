// Package fasta implements the FastaIndex collaborator (spec §6): a
// read-only, random-access oracle over reference sequences backed by a
// samtools-style .fai index, grounded on the seek-and-buffer strategy of
// grailbio's indexed FASTA reader.
package fasta

import "context"

// Missing is the sentinel Get returns for an unknown chromosome.
const Missing = ""

// ErrBadFasta is returned when the underlying FASTA or its .fai index is
// malformed, e.g. carries Windows-style CRLF line endings.
type ErrBadFasta struct {
	Reason string
}

func (e *ErrBadFasta) Error() string {
	return "bad fasta: " + e.Reason
}

// Index is the read-only reference-sequence oracle the core depends on.
// Implementations must be safe for concurrent use: the pipeline driver
// shares one Index across worker goroutines.
type Index interface {
	// Get returns the uppercased bases over the half-open interval
	// [start, end) on referenceName. start == -1 means "from 0"; end ==
	// -1 means "to the end of the chromosome". end beyond the
	// chromosome's length is clamped. An unknown chromosome returns
	// Missing ("").
	Get(ctx context.Context, referenceName string, start, end int64) (string, error)
	// ChromosomeSize returns the length of referenceName, or -1 if it is
	// not present in the index.
	ChromosomeSize(referenceName string) int64
	// ReferenceOrder returns reference names in the index's natural
	// (on-disk) order, each paired with its length.
	ReferenceOrder() []ReferenceLength
}

// ReferenceLength pairs a reference sequence name with its length, in the
// order an index lists them.
type ReferenceLength struct {
	Name   string
	Length int64
}
