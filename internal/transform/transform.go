// Package transform implements RegionTransformer (spec C7): the façade
// that orchestrates classification, diff enumeration, unit building, and
// per-unit transformation for a single homologous region, then validates
// and sorts the result.
package transform

import (
	"context"
	"fmt"
	"sort"

	"github.com/inodb/genomewarp/internal/diffscan"
	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
	"github.com/inodb/genomewarp/internal/region"
	"github.com/inodb/genomewarp/internal/unit"
	"github.com/inodb/genomewarp/internal/variant"
)

// ErrInvalidInput signals a caller contract violation: a malformed region,
// a variant outside its region, or an unset strand/region type. It is
// fatal for this region transform (unlike Unsupported/Invalid, which are
// returned via Result and recoverable by dropping the region).
type ErrInvalidInput struct {
	Reason string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("transform: invalid input: %s", e.Reason)
}

// ClassifyRegion implements the classifyRegion half of the public
// contract; see internal/region for the algorithm.
func ClassifyRegion(ctx context.Context, r genome.Region, queryFasta, targetFasta fasta.Index) (genome.RegionType, error) {
	out, err := region.Classify(ctx, r, queryFasta, targetFasta)
	if err != nil {
		return genome.TypeUnknown, err
	}
	return out.Type, nil
}

// Transform implements transform() (spec §4.7): it takes an
// already-classified region, its query-side variants, the callset names
// to stamp onto output calls, and the two FASTA indexes, and produces the
// target-side variant set.
//
// A non-nil error means the region transform could not even be attempted
// (InvalidInput, a caller contract violation; or BadFasta/other I/O
// errors bubbled from the reference lookups — fatal for the whole run).
// A nil error with a non-Ok Result.Kind means the region was understood
// but its shape isn't currently handled (Unsupported) or failed an
// internal consistency check (Invalid); both are recoverable by the
// caller dropping this region and continuing.
func Transform(ctx context.Context, r genome.Region, variants []*variant.Variant, callSetNames []string, queryFasta, targetFasta fasta.Index) (unit.Result, error) {
	if err := checkPreconditions(r, variants); err != nil {
		return unit.Result{}, err
	}

	if r.Type == genome.AlignmentRequired {
		return unit.Result{Kind: unit.Unsupported, Reason: "region requires alignment"}, nil
	}

	for _, v := range variants {
		if v.IsMNV() && (r.Type == genome.MismatchedBases || r.Strand == genome.Negative) {
			return unit.Result{Kind: unit.Unsupported, Reason: "mnv variant in a region shape the engine does not handle"}, nil
		}
	}

	refDiffs, err := computeRefDiffs(ctx, r, variants, queryFasta, targetFasta)
	if err != nil {
		if _, ok := err.(*diffscan.ErrDnaInvalid); ok {
			return unit.Result{Kind: unit.Unsupported, Reason: err.Error()}, nil
		}
		return unit.Result{}, err
	}

	units, err := unit.Build(refDiffs, variants, r)
	if err != nil {
		if unsupported, ok := err.(*unit.ErrUnsupported); ok {
			return unit.Result{Kind: unit.Unsupported, Reason: unsupported.Error()}, nil
		}
		return unit.Result{}, &ErrInvalidInput{Reason: err.Error()}
	}

	var targetVariants []*variant.Variant
	for _, u := range units {
		res := unit.Transform(u, callSetNames)
		if res.Kind != unit.Ok {
			return res, nil
		}
		targetVariants = append(targetVariants, res.Variants...)
	}

	sort.SliceStable(targetVariants, func(i, j int) bool {
		a, b := targetVariants[i], targetVariants[j]
		if a.ReferenceName != b.ReferenceName {
			return a.ReferenceName < b.ReferenceName
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	for _, v := range targetVariants {
		if v.ReferenceName != r.Target.ReferenceName || v.Start < r.Target.Start || v.Start >= r.Target.End {
			return unit.Result{Kind: unit.Unsupported, Reason: fmt.Sprintf(
				"emitted variant at %s:%d migrated outside target interval %s", v.ReferenceName, v.Start, r.Target)}, nil
		}
	}

	return unit.Result{Kind: unit.Ok, Variants: targetVariants}, nil
}

func checkPreconditions(r genome.Region, variants []*variant.Variant) error {
	if r.Query.ReferenceName == "" || r.Target.ReferenceName == "" {
		return &ErrInvalidInput{Reason: "region has an empty reference name"}
	}
	if r.Type == genome.TypeUnknown {
		return &ErrInvalidInput{Reason: "region type is unset"}
	}
	if r.Strand == genome.StrandUnknown {
		return &ErrInvalidInput{Reason: "region strand is unset"}
	}
	for _, v := range variants {
		if v.ReferenceName != r.Query.ReferenceName {
			return &ErrInvalidInput{Reason: fmt.Sprintf(
				"variant reference name %q does not match region query reference name %q", v.ReferenceName, r.Query.ReferenceName)}
		}
		if v.Start < r.Query.Start || v.Start >= r.Query.End {
			return &ErrInvalidInput{Reason: fmt.Sprintf(
				"variant at %d lies outside region query interval %s", v.Start, r.Query)}
		}
	}
	return nil
}

// computeRefDiffs implements §4.7 step 4: the pure-SNV/Identical fast path
// skips both scanners entirely (there is nothing they could find); every
// other supported shape runs the base-level scanner and the indel
// copy-number detector, in that order.
func computeRefDiffs(ctx context.Context, r genome.Region, variants []*variant.Variant, queryFasta, targetFasta fasta.Index) ([]refdiff.RefDiff, error) {
	allSNV := true
	for _, v := range variants {
		if !v.IsSNV() {
			allSNV = false
			break
		}
	}
	if allSNV && r.Type == genome.Identical {
		return nil, nil
	}

	scanned, err := diffscan.Scan(ctx, r, queryFasta, targetFasta)
	if err != nil {
		return nil, err
	}
	indel, err := diffscan.DetectIndelCopyNumber(ctx, r, variants, queryFasta, targetFasta)
	if err != nil {
		return nil, err
	}
	return append(scanned, indel...), nil
}
