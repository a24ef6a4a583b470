// Package diffscan implements AssemblyDiffScanner (spec C3) and
// IndelCopyNumberDetector (spec C4): enumeration of the per-base and
// tandem-repeat-induced differences between a query and target reference
// inside a single homologous region.
package diffscan

import (
	"context"
	"fmt"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
)

// ErrLengthMismatch is returned when Scan is called on an
// AlignmentRequired region, a caller-contract violation.
type ErrLengthMismatch struct {
	Region genome.Region
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("diffscan: region %s has mismatched query/target lengths", e.Region.Query)
}

// ErrDnaInvalid is returned when Scan encounters a non-ACGT base in a
// region that was already classified as Identical/MismatchedBases.
type ErrDnaInvalid struct {
	Region genome.Region
}

func (e *ErrDnaInvalid) Error() string {
	return fmt.Sprintf("diffscan: region %s contains non-ACGT bases", e.Region.Query)
}

// Scan implements AssemblyDiffScanner: for an Identical region it returns
// no differences (fast path, the classifier already proved equality);
// for a MismatchedBases region it emits one Snv RefDiff per differing
// position, left to right in query-coordinate order.
func Scan(ctx context.Context, r genome.Region, queryFasta, targetFasta fasta.Index) ([]refdiff.RefDiff, error) {
	if !r.LengthsMatch() {
		return nil, &ErrLengthMismatch{Region: r}
	}
	if r.Type == genome.Identical {
		return nil, nil
	}
	if r.Type != genome.MismatchedBases {
		return nil, nil
	}

	q, err := queryFasta.Get(ctx, r.Query.ReferenceName, r.Query.Start, r.Query.End)
	if err != nil {
		return nil, fmt.Errorf("diffscan: fetch query: %w", err)
	}
	t, err := targetFasta.Get(ctx, r.Target.ReferenceName, r.Target.Start, r.Target.End)
	if err != nil {
		return nil, fmt.Errorf("diffscan: fetch target: %w", err)
	}
	if !genome.IsACGT(q) || !genome.IsACGT(t) {
		return nil, &ErrDnaInvalid{Region: r}
	}
	if r.Strand == genome.Negative {
		t = genome.ReverseComplement(t)
	}

	var diffs []refdiff.RefDiff
	for i := 0; i < len(q); i++ {
		if q[i] == t[i] {
			continue
		}
		d, err := refdiff.Create(r.Query.Start+int64(i), q[i:i+1], t[i:i+1])
		if err != nil {
			return nil, fmt.Errorf("diffscan: build snv at query pos %d: %w", r.Query.Start+int64(i), err)
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}
