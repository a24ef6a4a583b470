// Package gvcfextract splits a single-sample gVCF into a VCF of real
// variant calls and a BED of confidently-called reference blocks (spec
// §4.11). Grounded on teacher internal/vcf/parser.go (header/body line
// scanning) and internal/maf/parser.go (record-oriented field parsing),
// adapted to gVCF's END=/<NON_REF> conventions instead of MAF columns.
package gvcfextract

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genomewarp/internal/confident"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/variant"
)

const nonRefAllele = "<NON_REF>"

// Extract reads a gVCF from r and writes real-variant rows to vcfW (VCF
// format, header passed through unchanged) and confidently-called
// reference/variant intervals to bedW (BED4, joined where adjacent).
func Extract(r io.Reader, vcfW, bedW io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	bw := bufio.NewWriter(vcfW)
	var confidentRegions []confident.ConfidentRegion

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return err
			}
			continue
		}
		if line == "" {
			continue
		}

		rec, err := parseRecord(line, lineNum)
		if err != nil {
			return err
		}

		if rec.isRefBlock() {
			confidentRegions = append(confidentRegions, confident.ConfidentRegion{
				Interval: genome.Interval{ReferenceName: rec.chrom, Start: rec.start, End: rec.end},
				Name:     "refblock",
			})
			continue
		}

		stripped := rec.stripNonRef()
		if _, err := bw.WriteString(stripped.line + "\n"); err != nil {
			return err
		}
		confidentRegions = append(confidentRegions, confident.ConfidentRegion{
			Interval: genome.Interval{ReferenceName: rec.chrom, Start: rec.start, End: rec.end},
			Name:     "variant",
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read gvcf: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	joined := joinAdjacent(confidentRegions)
	bedWriter := variant.NewBEDWriter(bedW)
	for _, r := range joined {
		if err := bedWriter.Write(r); err != nil {
			return err
		}
	}
	return bedWriter.Flush()
}

// joinAdjacent merges touching same-name intervals; cross-name touching
// blocks (a ref block immediately followed by a variant record) are left
// as distinct entries so the variant's own interval stays identifiable.
// internal/confident.Preprocess does not merge them either: its
// remove-overlaps step merges only intervals that strictly overlap, and
// its join step only touching intervals that share a name.
func joinAdjacent(regions []confident.ConfidentRegion) []confident.ConfidentRegion {
	if len(regions) == 0 {
		return regions
	}
	out := []confident.ConfidentRegion{regions[0]}
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

type gvcfRecord struct {
	line   string
	chrom  string
	start  int64
	end    int64
	alts   []string
	fields []string
}

func (r gvcfRecord) isRefBlock() bool {
	return len(r.alts) == 0 || (len(r.alts) == 1 && r.alts[0] == nonRefAllele)
}

// stripNonRef removes a trailing <NON_REF> placeholder allele from ALT
// (gVCF records with real alts still carry it to reserve a symbolic
// "anything else" allele) and rewrites the ALT column and INFO/FORMAT GT
// indices are left untouched: callers emitting these variants onward
// through internal/variant.VCFReader re-derive allele indices from the
// rewritten ALT column, which loses no fidelity, since this package only
// writes the VCF text through, not a parsed variant.Variant.
func (r gvcfRecord) stripNonRef() gvcfRecord {
	var kept []string
	for _, a := range r.alts {
		if a != nonRefAllele {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(r.alts) {
		return r
	}
	fields := append([]string(nil), r.fields...)
	fields[4] = strings.Join(kept, ",")
	r.line = strings.Join(fields, "\t")
	r.alts = kept
	return r
}

func parseRecord(line string, lineNum int) (gvcfRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return gvcfRecord{}, fmt.Errorf("gvcf line %d: expected at least 8 columns, found %d", lineNum, len(fields))
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return gvcfRecord{}, fmt.Errorf("gvcf line %d: invalid position: %s", lineNum, fields[1])
	}
	start := pos - 1
	end := start + int64(len(fields[3]))
	if endOverride, ok := parseEndInfo(fields[7]); ok {
		end = endOverride
	}

	var alts []string
	if fields[4] != "." && fields[4] != "" {
		alts = strings.Split(fields[4], ",")
	}

	return gvcfRecord{
		line:   line,
		chrom:  fields[0],
		start:  start,
		end:    end,
		alts:   alts,
		fields: fields,
	}, nil
}

func parseEndInfo(info string) (int64, bool) {
	for _, kv := range strings.Split(info, ";") {
		if strings.HasPrefix(kv, "END=") {
			v, err := strconv.ParseInt(strings.TrimPrefix(kv, "END="), 10, 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
