// Package chain parses UCSC chain files into a stream of HomologousRegion
// values (spec §4.9), implementing the RegionProvider role (spec.md §6).
// Grounded on teacher internal/vcf/parser.go's header/body scanning loop:
// a chain file is just a different header shape (one "chain ..." stanza
// line per block-group instead of one VCF header) over the same
// line-oriented, optionally-gzipped input.
package chain

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genomewarp/internal/genome"
)

// ChainHeader is one UCSC "chain" stanza line: the alignment's score and
// the query/target chromosome, size, strand, and aligned-span bounds.
//
// UCSC's own field names are "t" (the chain's reference genome) and "q"
// (the genome being mapped onto it); this package treats "t" as the
// liftover's Query assembly (the genome variants arrive on) and "q" as
// the Target assembly (the genome variants are lifted to), which is the
// convention used by chain files distributed for single-direction
// liftover (e.g. hg19ToHg38.over.chain: t=hg19=query, q=hg38=target).
type ChainHeader struct {
	Score          int64
	QueryName      string
	QuerySize      int64
	QueryStrand    genome.Strand
	QueryStart     int64
	QueryEnd       int64
	TargetName     string
	TargetSize     int64
	TargetStrand   genome.Strand
	TargetStart    int64
	TargetEnd      int64
	ID             string
}

// ChainBlock is one ungapped alignment block within a chain: size bases
// match exactly, followed by dt bases skipped in the query and dq bases
// skipped in the target before the next block (dt/dq are 0 on the final
// block of a chain).
type ChainBlock struct {
	Size int64
	Dt   int64
	Dq   int64
}

// Chain is one parsed stanza: its header plus ungapped blocks.
type Chain struct {
	Header ChainHeader
	Blocks []ChainBlock
}

// ErrMalformedChain reports a chain file that does not parse as UCSC
// chain format.
type ErrMalformedChain struct {
	Line   int
	Reason string
}

func (e *ErrMalformedChain) Error() string {
	return fmt.Sprintf("chain line %d: %s", e.Line, e.Reason)
}

// ParseChains reads every stanza from r (sniffing for a gzip magic
// header first) and returns them in file order.
func ParseChains(r io.Reader) ([]Chain, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek chain stream: %w", err)
	}
	var reader io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var chains []Chain
	var cur *Chain
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			if cur != nil {
				chains = append(chains, *cur)
				cur = nil
			}
		case strings.HasPrefix(line, "chain "):
			if cur != nil {
				chains = append(chains, *cur)
			}
			h, err := parseHeader(line, lineNum)
			if err != nil {
				return nil, err
			}
			cur = &Chain{Header: h}
		case strings.HasPrefix(line, "#"):
			// comment line, ignore
		default:
			if cur == nil {
				return nil, &ErrMalformedChain{Line: lineNum, Reason: "block line before any chain header"}
			}
			blk, err := parseBlock(line, lineNum)
			if err != nil {
				return nil, err
			}
			cur.Blocks = append(cur.Blocks, blk)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chain stream: %w", err)
	}
	if cur != nil {
		chains = append(chains, *cur)
	}
	return chains, nil
}

func parseHeader(line string, lineNum int) (ChainHeader, error) {
	fields := strings.Fields(line)
	if len(fields) != 13 {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: fmt.Sprintf("expected 13 fields in chain header, found %d", len(fields))}
	}
	// chain score tName tSize tStrand tStart tEnd qName qSize qStrand qStart qEnd id
	score, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid score"}
	}
	tSize, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid tSize"}
	}
	tStart, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid tStart"}
	}
	tEnd, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid tEnd"}
	}
	qSize, err := strconv.ParseInt(fields[8], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid qSize"}
	}
	qStart, err := strconv.ParseInt(fields[10], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid qStart"}
	}
	qEnd, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return ChainHeader{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid qEnd"}
	}

	return ChainHeader{
		Score:        score,
		QueryName:    fields[2],
		QuerySize:    tSize,
		QueryStrand:  parseStrand(fields[4]),
		QueryStart:   tStart,
		QueryEnd:     tEnd,
		TargetName:   fields[7],
		TargetSize:   qSize,
		TargetStrand: parseStrand(fields[9]),
		TargetStart:  qStart,
		TargetEnd:    qEnd,
		ID:           fields[12],
	}, nil
}

func parseStrand(s string) genome.Strand {
	switch s {
	case "+":
		return genome.Positive
	case "-":
		return genome.Negative
	default:
		return genome.StrandUnknown
	}
}

func parseBlock(line string, lineNum int) (ChainBlock, error) {
	fields := strings.Fields(line)
	if len(fields) != 1 && len(fields) != 3 {
		return ChainBlock{}, &ErrMalformedChain{Line: lineNum, Reason: fmt.Sprintf("expected 1 or 3 fields in block line, found %d", len(fields))}
	}
	size, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return ChainBlock{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid block size"}
	}
	blk := ChainBlock{Size: size}
	if len(fields) == 3 {
		dt, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return ChainBlock{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid dt"}
		}
		dq, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return ChainBlock{}, &ErrMalformedChain{Line: lineNum, Reason: "invalid dq"}
		}
		blk.Dt = dt
		blk.Dq = dq
	}
	return blk, nil
}

// Regions expands c into one genome.Region per ungapped block, with Type
// left TypeUnknown (filled later by classifyRegion, matching spec.md's
// "Regions arrive with type unset"). The t side of a UCSC chain (this
// package's Query) is always given on the positive strand; the region's
// Strand comes from the chain's qStrand field (Header.TargetStrand):
// qStrand '-' means the target sequence at this block is the reverse
// complement of the query sequence.
func (c Chain) Regions() []genome.Region {
	regions := make([]genome.Region, 0, len(c.Blocks))
	qPos := c.Header.QueryStart
	tPos := c.Header.TargetStart
	for _, blk := range c.Blocks {
		if blk.Size > 0 {
			regions = append(regions, genome.Region{
				Query:  genome.Interval{ReferenceName: c.Header.QueryName, Start: qPos, End: qPos + blk.Size},
				Target: genome.Interval{ReferenceName: c.Header.TargetName, Start: tPos, End: tPos + blk.Size},
				Strand: c.Header.TargetStrand,
			})
		}
		qPos += blk.Size + blk.Dt
		tPos += blk.Size + blk.Dq
	}
	return regions
}
