package diffscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
	"github.com/inodb/genomewarp/internal/variant"
)

// initialWindow is the first guess at how many bases past a variant's
// anchor to fetch while probing for a tandem-repeat run; it doubles on
// each miss, so the exact value only affects how many refetches a long
// run costs, never correctness.
const initialWindow = 64

// DetectIndelCopyNumber implements IndelCopyNumberDetector (spec C4). It
// only ever produces diffs for positive-strand Identical regions; any
// other region shape yields no diffs (the caller already knows negative
// strand or MismatchedBases regions aren't eligible, but the guard is
// repeated here so the detector is safe to call unconditionally).
func DetectIndelCopyNumber(ctx context.Context, r genome.Region, variants []*variant.Variant, queryFasta, targetFasta fasta.Index) ([]refdiff.RefDiff, error) {
	if r.Type != genome.Identical || r.Strand != genome.Positive {
		return nil, nil
	}

	var diffs []refdiff.RefDiff
	for _, v := range variants {
		if !v.IsMNV() {
			continue
		}
		if v.Start < r.Query.Start || v.Start >= r.Query.End {
			continue
		}
		d, err := detectForVariant(ctx, r, v, queryFasta, targetFasta)
		if err != nil {
			return nil, err
		}
		if !d.IsNoDiff() {
			diffs = append(diffs, d)
		}
	}
	return diffs, nil
}

// candidateAlleles returns the non-anchor tails to probe for v: the
// reference's own tail (if the reference itself is an MNV) plus the tail
// of every alternate that shares the reference's first (anchor) base.
func candidateAlleles(v *variant.Variant) []string {
	anchor := string(v.ReferenceBases[0])
	var out []string
	if len(v.ReferenceBases) > 1 {
		out = append(out, strings.ToUpper(string(v.ReferenceBases[1:])))
	}
	for _, alt := range v.AlternateBases {
		if len(alt) > 1 && strings.EqualFold(string(alt[0]), anchor) {
			out = append(out, strings.ToUpper(string(alt[1:])))
		}
	}
	return out
}

func detectForVariant(ctx context.Context, r genome.Region, v *variant.Variant, queryFasta, targetFasta fasta.Index) (refdiff.RefDiff, error) {
	cSize := r.Query.End - v.Start

	var bestAllele string
	var bestQRun int64 = -1
	for _, allele := range candidateAlleles(v) {
		if allele == "" {
			continue
		}
		qRun, err := queryRun(ctx, queryFasta, r.Query.ReferenceName, v.Start, allele)
		if err != nil {
			return refdiff.RefDiff{}, err
		}
		if qRun < cSize {
			// Divergence happened inside the region; classification
			// already captured it.
			continue
		}
		if qRun > bestQRun {
			bestQRun = qRun
			bestAllele = allele
		}
	}
	if bestQRun < 0 {
		return refdiff.NoDiff, nil
	}

	targetStart := r.Target.Start + (v.Start - r.Query.Start)
	tRun, err := targetRun(ctx, targetFasta, r.Target.ReferenceName, targetStart, bestQRun, bestAllele)
	if err != nil {
		return refdiff.RefDiff{}, err
	}

	d := (bestQRun - tRun) / int64(len(bestAllele))
	if d == 0 {
		return refdiff.NoDiff, nil
	}

	anchor := string(v.ReferenceBases[0])
	if d > 0 {
		// Target has fewer copies: query has d extra copies of allele
		// beyond what target has -> a Deletion from query's perspective.
		return refdiff.Create(v.Start, anchor+strings.Repeat(bestAllele, int(d)), anchor)
	}
	// d < 0: target has more copies -> an Insertion.
	return refdiff.Create(v.Start, anchor, anchor+strings.Repeat(bestAllele, int(-d)))
}

// queryRun scans the query chromosome starting at the variant's anchor
// position for the longest run matching allele's tandem repeat, growing
// the fetch window geometrically and capping at the chromosome's length.
func queryRun(ctx context.Context, fa fasta.Index, chrom string, anchorPos int64, allele string) (int64, error) {
	return scanRun(ctx, fa, chrom, anchorPos, allele, initialWindow)
}

// targetRun scans the target chromosome for the same tandem-repeat run,
// starting its window at qRun+1 bases (the query's own run is a natural
// first guess) and growing it the same way queryRun does. A fixed window
// of exactly qRun+1 bases could never observe a target run longer than
// qRun, which would make the Insertion case (target has more copies)
// unreachable; growing the window lets tRun exceed qRun when the target
// repeat genuinely runs further than the query's.
func targetRun(ctx context.Context, fa fasta.Index, chrom string, anchorPos, qRun int64, allele string) (int64, error) {
	return scanRun(ctx, fa, chrom, anchorPos, allele, qRun+1)
}

// scanRun fetches a growing window starting at anchorPos and reports the
// longest tandem-repeat run of allele found immediately after it, doubling
// the window whenever the run reaches the window's end without diverging
// and capping at the chromosome's length.
func scanRun(ctx context.Context, fa fasta.Index, chrom string, anchorPos int64, allele string, startWindow int64) (int64, error) {
	chromLen := fa.ChromosomeSize(chrom)
	window := startWindow
	for {
		end := anchorPos + window
		if chromLen >= 0 && end > chromLen {
			end = chromLen
		}
		seq, err := fa.Get(ctx, chrom, anchorPos, end)
		if err != nil {
			return 0, fmt.Errorf("diffscan: indel copy number: fetch window: %w", err)
		}
		run, hitWindowEnd := runLength(seq, allele)
		if !hitWindowEnd {
			return run, nil
		}
		if chromLen >= 0 && end == chromLen {
			// Exhausted the chromosome without diverging: the remaining
			// chromosome length is the run.
			return run, nil
		}
		window *= 2
	}
}

// runLength returns the count of bases strictly after the anchor at
// seq[0] that match allele's tandem repeat before the first mismatch (or
// before seq runs out), and whether seq ran out before a mismatch was
// found (the caller must grow the window and retry in that case).
func runLength(seq string, allele string) (matched int64, hitEnd bool) {
	n := int64(len(seq))
	aLen := int64(len(allele))
	i := int64(1)
	for i < n {
		if seq[i] != allele[(i-1)%aLen] {
			return matched, false
		}
		matched++
		i++
	}
	return matched, true
}
