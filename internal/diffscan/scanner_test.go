package diffscan

import (
	"context"
	"testing"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	seqs map[string]string
}

func (f *fakeIndex) Get(_ context.Context, name string, start, end int64) (string, error) {
	seq, ok := f.seqs[name]
	if !ok {
		return fasta.Missing, nil
	}
	if start == -1 {
		start = 0
	}
	if end == -1 || end > int64(len(seq)) {
		end = int64(len(seq))
	}
	return seq[start:end], nil
}

func (f *fakeIndex) ChromosomeSize(name string) int64 {
	seq, ok := f.seqs[name]
	if !ok {
		return -1
	}
	return int64(len(seq))
}

func (f *fakeIndex) ReferenceOrder() []fasta.ReferenceLength { return nil }

func TestScan_IdenticalIsFastPathEmpty(t *testing.T) {
	q := &fakeIndex{seqs: map[string]string{"chr1": "ACGTACGT"}}
	tgt := &fakeIndex{seqs: map[string]string{"chr1": "ACGTACGT"}}
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 8},
		Target: genome.Interval{ReferenceName: "chr1", Start: 0, End: 8},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	diffs, err := Scan(context.Background(), r, q, tgt)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestScan_MismatchedBasesEmitsSnvsInOrder(t *testing.T) {
	q := &fakeIndex{seqs: map[string]string{"chr1": "ACGTACGT"}}
	tgt := &fakeIndex{seqs: map[string]string{"chr1": "ACTTACGA"}}
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 100, End: 108},
		Target: genome.Interval{ReferenceName: "chr1", Start: 200, End: 208},
		Strand: genome.Positive,
		Type:   genome.MismatchedBases,
	}
	diffs, err := Scan(context.Background(), r, q, tgt)
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.Equal(t, int64(102), diffs[0].QueryPos())
	assert.Equal(t, "G", diffs[0].QueryBases())
	assert.Equal(t, "T", diffs[0].TargetBases())
	assert.Equal(t, int64(107), diffs[1].QueryPos())
	assert.Equal(t, "T", diffs[1].QueryBases())
	assert.Equal(t, "A", diffs[1].TargetBases())
}

func TestScan_NegativeStrandRevcompsTargetFirst(t *testing.T) {
	q := &fakeIndex{seqs: map[string]string{"chr1": "ACGT"}}
	// revcomp("ACGT") == "ACGT"; flip one base so revcomp differs at pos 3.
	tgt := &fakeIndex{seqs: map[string]string{"chr2": "GCGT"}} // revcomp -> "ACGC"
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 4},
		Target: genome.Interval{ReferenceName: "chr2", Start: 0, End: 4},
		Strand: genome.Negative,
		Type:   genome.MismatchedBases,
	}
	diffs, err := Scan(context.Background(), r, q, tgt)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, int64(3), diffs[0].QueryPos())
	assert.Equal(t, "T", diffs[0].QueryBases())
	assert.Equal(t, "C", diffs[0].TargetBases())
}

func TestScan_LengthMismatchErrors(t *testing.T) {
	q := &fakeIndex{seqs: map[string]string{"chr1": "ACGT"}}
	tgt := &fakeIndex{seqs: map[string]string{"chr1": "ACGTA"}}
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 4},
		Target: genome.Interval{ReferenceName: "chr1", Start: 0, End: 5},
		Strand: genome.Positive,
	}
	_, err := Scan(context.Background(), r, q, tgt)
	require.Error(t, err)
	var mismatch *ErrLengthMismatch
	assert.ErrorAs(t, err, &mismatch)
}
