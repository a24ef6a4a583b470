package variant

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genomewarp/internal/confident"
	"github.com/inodb/genomewarp/internal/genome"
)

// BEDReader parses a BED3/BED4 stream into confident.ConfidentRegion
// values, grounded on the same line-oriented scanner style as
// internal/vcf/parser.go (no gzip sniffing here: gVCF extraction and
// confident-region files are consumed uncompressed by this reader;
// callers wrap r in a gzip.Reader themselves for .bed.gz inputs, matching
// the "writer/reader decides, not the format package" split also used by
// VCFWriter's pgzip wrapping).
type BEDReader struct {
	scanner    *bufio.Scanner
	lineNumber int
}

// NewBEDReader wraps r.
func NewBEDReader(r io.Reader) *BEDReader {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &BEDReader{scanner: scanner}
}

// Next reads the next BED record. Returns the zero value and false at end
// of stream. Blank lines and lines starting with "#" or "track" are
// skipped, matching common BED-file convention.
func (br *BEDReader) Next() (confident.ConfidentRegion, bool, error) {
	for br.scanner.Scan() {
		br.lineNumber++
		line := br.scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return confident.ConfidentRegion{}, false, &ParseError{Line: br.lineNumber, Message: fmt.Sprintf("expected at least 3 columns, found %d", len(fields))}
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return confident.ConfidentRegion{}, false, &ParseError{Line: br.lineNumber, Message: fmt.Sprintf("invalid start: %s", fields[1])}
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return confident.ConfidentRegion{}, false, &ParseError{Line: br.lineNumber, Message: fmt.Sprintf("invalid end: %s", fields[2])}
		}
		name := ""
		if len(fields) > 3 {
			name = fields[3]
		}
		return confident.ConfidentRegion{
			Interval: genome.Interval{ReferenceName: fields[0], Start: start, End: end},
			Name:     name,
		}, true, nil
	}
	if err := br.scanner.Err(); err != nil {
		return confident.ConfidentRegion{}, false, fmt.Errorf("read bed line: %w", err)
	}
	return confident.ConfidentRegion{}, false, nil
}

// ReadAllBED drains a BEDReader over r into a slice, for callers (confident
// preprocessing, chain-file confident-region intersection) that want the
// whole set in memory.
func ReadAllBED(r io.Reader) ([]confident.ConfidentRegion, error) {
	br := NewBEDReader(r)
	var out []confident.ConfidentRegion
	for {
		rec, ok, err := br.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

// BEDWriter serializes confident.ConfidentRegion values as BED4.
type BEDWriter struct {
	w *bufio.Writer
}

// NewBEDWriter wraps w.
func NewBEDWriter(w io.Writer) *BEDWriter {
	return &BEDWriter{w: bufio.NewWriter(w)}
}

// Write emits one BED4 line.
func (bw *BEDWriter) Write(r confident.ConfidentRegion) error {
	_, err := fmt.Fprintf(bw.w, "%s\t%d\t%d\t%s\n", r.Interval.ReferenceName, r.Interval.Start, r.Interval.End, r.Name)
	return err
}

// Flush flushes the underlying buffered writer.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}
