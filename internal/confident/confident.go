// Package confident preprocesses confidently-called regions (spec §4.10):
// splitting on non-DNA runs, padding, windowing, and merging, before a
// HomologousRegion stream is intersected against them. Grounded on
// teacher internal/cache/gtf_loader.go's sorted-interval bookkeeping,
// adapted from transcript/exon intervals to confident-call intervals.
package confident

import (
	"context"
	"sort"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
)

// ConfidentRegion names a genomic interval known to be confidently
// called (e.g. non-repetitive, uniquely alignable); name is carried
// through from the input so adjacent regions from the same source can be
// rejoined after windowing.
type ConfidentRegion struct {
	Interval genome.Interval
	Name     string
}

// Preprocess runs the five-step pipeline from spec §4.10: split on
// non-DNA, pad, window, remove overlaps, and join by name. fa is used
// only for the split step's sequence lookups.
func Preprocess(ctx context.Context, regions []ConfidentRegion, fa fasta.Index, padding, windowSize int64) ([]ConfidentRegion, error) {
	split, err := splitOnNonDNA(ctx, regions, fa)
	if err != nil {
		return nil, err
	}
	padded := pad(split, fa, padding)
	windowed := window(padded, windowSize)
	merged := removeOverlaps(windowed)
	joined := joinByName(merged)
	return joined, nil
}

// splitOnNonDNA cuts each region at maximal runs of non-ACGT bases,
// discarding the N runs themselves.
func splitOnNonDNA(ctx context.Context, regions []ConfidentRegion, fa fasta.Index) ([]ConfidentRegion, error) {
	var out []ConfidentRegion
	for _, r := range regions {
		seq, err := fa.Get(ctx, r.Interval.ReferenceName, r.Interval.Start, r.Interval.End)
		if err != nil {
			return nil, err
		}
		runStart := -1
		for i := 0; i <= len(seq); i++ {
			isDNA := i < len(seq) && genome.IsACGT(string(seq[i]))
			if isDNA {
				if runStart < 0 {
					runStart = i
				}
				continue
			}
			if runStart >= 0 {
				out = append(out, ConfidentRegion{
					Interval: genome.Interval{
						ReferenceName: r.Interval.ReferenceName,
						Start:         r.Interval.Start + int64(runStart),
						End:           r.Interval.Start + int64(i),
					},
					Name: r.Name,
				})
				runStart = -1
			}
		}
	}
	return out, nil
}

// pad extends each region by padding bases on each side, clamped to
// [0, chromosomeSize).
func pad(regions []ConfidentRegion, fa fasta.Index, padding int64) []ConfidentRegion {
	out := make([]ConfidentRegion, len(regions))
	for i, r := range regions {
		start := r.Interval.Start - padding
		if start < 0 {
			start = 0
		}
		end := r.Interval.End + padding
		if size := fa.ChromosomeSize(r.Interval.ReferenceName); size >= 0 && end > size {
			end = size
		}
		out[i] = ConfidentRegion{
			Interval: genome.Interval{ReferenceName: r.Interval.ReferenceName, Start: start, End: end},
			Name:     r.Name,
		}
	}
	return out
}

// window splits any region longer than windowSize into consecutive
// windowSize-sized (or shorter final) sub-regions, preserving name.
func window(regions []ConfidentRegion, windowSize int64) []ConfidentRegion {
	if windowSize <= 0 {
		return regions
	}
	var out []ConfidentRegion
	for _, r := range regions {
		for start := r.Interval.Start; start < r.Interval.End; start += windowSize {
			end := start + windowSize
			if end > r.Interval.End {
				end = r.Interval.End
			}
			out = append(out, ConfidentRegion{
				Interval: genome.Interval{ReferenceName: r.Interval.ReferenceName, Start: start, End: end},
				Name:     r.Name,
			})
		}
	}
	return out
}

// removeOverlaps sorts by (referenceName, start) and clips any
// overlapping pair, keeping the earlier region's name on the merged
// interval.
func removeOverlaps(regions []ConfidentRegion) []ConfidentRegion {
	sorted := append([]ConfidentRegion(nil), regions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Interval.ReferenceName != sorted[j].Interval.ReferenceName {
			return sorted[i].Interval.ReferenceName < sorted[j].Interval.ReferenceName
		}
		return sorted[i].Interval.Start < sorted[j].Interval.Start
	})

	var out []ConfidentRegion
	for _, r := range sorted {
		if len(out) == 0 {
			out = append(out, r)
			continue
		}
		last := &out[len(out)-1]
		if r.Interval.ReferenceName == last.Interval.ReferenceName && r.Interval.Start < last.Interval.End {
			if r.Interval.End > last.Interval.End {
				last.Interval.End = r.Interval.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// joinByName rejoins adjacent regions (touching end == start) that share
// a name into one interval.
func joinByName(regions []ConfidentRegion) []ConfidentRegion {
	if len(regions) == 0 {
		return regions
	}
	var out []ConfidentRegion
	out = append(out, regions[0])
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		if r.Interval.ReferenceName == last.Interval.ReferenceName &&
			r.Interval.Start == last.Interval.End &&
			r.Name == last.Name {
			last.Interval.End = r.Interval.End
			continue
		}
		out = append(out, r)
	}
	return out
}
