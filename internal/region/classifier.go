// Package region implements RegionClassifier (spec C2): decide whether a
// homologous region's query and target intervals carry identical bases,
// merely mismatched bases, or require alignment (or must be dropped as
// Unknown).
package region

import (
	"context"
	"fmt"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
)

// Classify determines r's RegionType from its query/target intervals and
// the two reference sequences. r.Type is ignored on input (the contract
// is that regions arrive with type unset) and a new genome.Region value
// with Type populated is returned; r itself is not mutated.
//
// Algorithm (verbatim from the spec): unequal interval lengths always
// mean AlignmentRequired, regardless of sequence content. Otherwise fetch
// both sequences, canonicalize target by strand, and compare: a missing
// chromosome or any non-ACGT base yields Unknown (a silent drop, not an
// error); exact equality yields Identical; anything else is
// MismatchedBases.
func Classify(ctx context.Context, r genome.Region, queryFasta, targetFasta fasta.Index) (genome.Region, error) {
	out := r

	if !r.LengthsMatch() {
		out.Type = genome.AlignmentRequired
		return out, nil
	}

	q, err := queryFasta.Get(ctx, r.Query.ReferenceName, r.Query.Start, r.Query.End)
	if err != nil {
		return genome.Region{}, fmt.Errorf("classify region %s: fetch query: %w", r.Query, err)
	}
	t, err := targetFasta.Get(ctx, r.Target.ReferenceName, r.Target.Start, r.Target.End)
	if err != nil {
		return genome.Region{}, fmt.Errorf("classify region %s: fetch target: %w", r.Query, err)
	}

	if q == fasta.Missing || t == fasta.Missing {
		out.Type = genome.TypeUnknown
		return out, nil
	}
	if !genome.IsACGT(q) || !genome.IsACGT(t) {
		out.Type = genome.TypeUnknown
		return out, nil
	}

	if r.Strand == genome.Negative {
		t = genome.ReverseComplement(t)
	}

	if genome.EqualFold(q, t) {
		out.Type = genome.Identical
	} else {
		out.Type = genome.MismatchedBases
	}
	return out, nil
}
