package variant

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
)

// VCFReader parses a (optionally gzip-compressed) VCF stream into Variant
// values, implementing the VariantSource role (spec.md §6). Grounded on
// teacher internal/vcf/parser.go: gzip-magic sniffing, a buffered line
// reader, and a header/body split on the "#CHROM" line.
type VCFReader struct {
	r           *bufio.Reader
	gz          *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string
}

// ParseError reports a malformed VCF line, carrying its 1-based line number.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf line %d: %s", e.Line, e.Message)
}

// NewVCFReader wraps r, sniffing for a gzip magic header before the first
// read. The header (## and #CHROM lines) is consumed immediately so
// SampleNames is available before the first call to Next.
func NewVCFReader(r io.Reader) (*VCFReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek vcf stream: %w", err)
	}

	vr := &VCFReader{}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		vr.gz = gz
		vr.r = bufio.NewReader(gz)
	} else {
		vr.r = br
	}

	if err := vr.parseHeader(); err != nil {
		return nil, err
	}
	return vr, nil
}

// SampleNames returns the sample columns declared on the #CHROM line, in
// file order; these become the default CallSetNames for a VCF source.
func (vr *VCFReader) SampleNames() []string {
	return vr.sampleNames
}

// HeaderLines returns the raw header (## and #CHROM) lines, for a writer
// that wants to echo them back out (e.g. BadFasta diagnostics aside, a
// passthrough liftover writer reuses these verbatim).
func (vr *VCFReader) HeaderLines() []string {
	return vr.header
}

func (vr *VCFReader) parseHeader() error {
	for {
		line, err := vr.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				break
			}
			if err != io.EOF {
				return fmt.Errorf("read vcf header: %w", err)
			}
		}
		vr.lineNumber++
		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			vr.header = append(vr.header, line)
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			vr.header = append(vr.header, line)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				vr.sampleNames = fields[9:]
			}
			return nil
		}
		return &ParseError{Line: vr.lineNumber, Message: "expected #CHROM header line"}
	}
	return &ParseError{Line: vr.lineNumber, Message: "no #CHROM header line found"}
}

// Next reads one VCF data line and returns the Variant(s) it encodes (one
// per comma-separated alternate allele is NOT split here: Next returns a
// single multi-allelic Variant, matching the VCF record itself). Returns
// nil, nil at end of stream.
func (vr *VCFReader) Next(ctx context.Context) (*Variant, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := vr.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if line == "" {
					return nil, nil
				}
			} else {
				return nil, fmt.Errorf("read vcf line: %w", err)
			}
		}
		vr.lineNumber++
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}
		return vr.parseLine(line)
	}
}

func (vr *VCFReader) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{Line: vr.lineNumber, Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields))}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: vr.lineNumber, Message: fmt.Sprintf("invalid position: %s", fields[1])}
	}
	start := pos - 1 // VCF POS is 1-based; the core's Start is 0-based.

	ref := Allele(fields[3])
	var alts []Allele
	for _, a := range strings.Split(fields[4], ",") {
		alts = append(alts, Allele(a))
	}

	v := &Variant{
		ReferenceName:  fields[0],
		Start:          start,
		End:            start + int64(len(ref)),
		ReferenceBases: ref,
		AlternateBases: alts,
	}
	if fields[2] != "." {
		v.Names = strings.Split(fields[2], ";")
	}
	if fields[5] != "." {
		q, err := strconv.ParseFloat(fields[5], 64)
		if err == nil {
			v.Quality = &q
		}
	}
	if fields[6] != "." && fields[6] != "" {
		v.Filters = strings.Split(fields[6], ";")
	}
	v.Info = parseInfo(fields[7])

	if len(fields) > 9 {
		calls, err := vr.parseCalls(fields[8], fields[9:])
		if err != nil {
			return nil, err
		}
		v.Calls = calls
	}

	return v, nil
}

func (vr *VCFReader) parseCalls(format string, sampleCols []string) ([]Call, error) {
	formatKeys := strings.Split(format, ":")
	gtIdx := -1
	for i, k := range formatKeys {
		if k == "GT" {
			gtIdx = i
			break
		}
	}
	calls := make([]Call, len(sampleCols))
	for i, col := range sampleCols {
		name := ""
		if i < len(vr.sampleNames) {
			name = vr.sampleNames[i]
		}
		c := Call{CallSetName: name}
		if gtIdx >= 0 {
			subfields := strings.Split(col, ":")
			if gtIdx < len(subfields) {
				gt, phased, err := parseGenotype(subfields[gtIdx])
				if err != nil {
					return nil, &ParseError{Line: vr.lineNumber, Message: err.Error()}
				}
				c.Genotype = gt
				c.Phased = phased
			}
		}
		calls[i] = c
	}
	return calls, nil
}

func parseGenotype(s string) ([]int, bool, error) {
	phased := strings.Contains(s, "|")
	sep := "/"
	if phased {
		sep = "|"
	}
	parts := strings.Split(s, sep)
	gt := make([]int, len(parts))
	for i, p := range parts {
		if p == "." {
			gt[i] = -1
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false, fmt.Errorf("invalid genotype allele %q", p)
		}
		gt[i] = n
	}
	return gt, phased, nil
}

func parseInfo(info string) map[string][]any {
	result := make(map[string][]any)
	if info == "." || info == "" {
		return result
	}
	for _, kv := range strings.Split(info, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 1 {
			result[parts[0]] = []any{true}
			continue
		}
		var vals []any
		for _, v := range strings.Split(parts[1], ",") {
			vals = append(vals, v)
		}
		result[parts[0]] = vals
	}
	return result
}

// Close releases the underlying gzip reader, if any.
func (vr *VCFReader) Close() error {
	if vr.gz != nil {
		return vr.gz.Close()
	}
	return nil
}

// VCFWriter serializes target-side Variants as VCF, implementing the
// VariantSink role. Grounded on teacher internal/output/vcf.go's buffered,
// flush-on-boundary writer, adapted from CSQ-annotation buffering to
// lifted-variant passthrough. It writes plain text to w and never looks
// at a file name; output is compressed only when w is itself a
// *pgzip.Writer (see NewPgzipVCFWriter), matching the teacher's own
// "writer decides, not the format package" split.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string
	callSetNames []string
}

// NewVCFWriter creates a writer over w, which callers may itself be a
// *pgzip.Writer for compressed output.
func NewVCFWriter(w io.Writer, headerLines []string, callSetNames []string) *VCFWriter {
	return &VCFWriter{w: bufio.NewWriter(w), headerLines: headerLines, callSetNames: callSetNames}
}

// NewPgzipVCFWriter is a convenience constructor that wraps w in a pgzip
// writer for .vcf.gz output, grounded on the pack's preference for pgzip
// over stdlib gzip on large genomic text streams.
func NewPgzipVCFWriter(w io.Writer, headerLines []string, callSetNames []string) (*VCFWriter, *pgzip.Writer) {
	gz := pgzip.NewWriter(w)
	return NewVCFWriter(gz, headerLines, callSetNames), gz
}

// WriteHeader emits the original ## lines followed by a #CHROM line with
// the writer's CallSetNames appended as sample columns.
func (vw *VCFWriter) WriteHeader() error {
	for _, line := range vw.headerLines {
		if strings.HasPrefix(line, "#CHROM") {
			continue
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	cols := []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}
	if len(vw.callSetNames) > 0 {
		cols = append(cols, "FORMAT")
		cols = append(cols, vw.callSetNames...)
	}
	_, err := vw.w.WriteString(strings.Join(cols, "\t") + "\n")
	return err
}

// Write serializes a single target-side Variant as one VCF line.
func (vw *VCFWriter) Write(v *Variant) error {
	var lb strings.Builder
	lb.Grow(128)

	lb.WriteString(v.ReferenceName)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Start+1, 10))
	lb.WriteByte('\t')
	if len(v.Names) == 0 {
		lb.WriteByte('.')
	} else {
		lb.WriteString(strings.Join(v.Names, ";"))
	}
	lb.WriteByte('\t')
	lb.WriteString(string(v.ReferenceBases))
	lb.WriteByte('\t')
	lb.WriteString(allelesToCSV(v.AlternateBases))
	lb.WriteByte('\t')
	if v.Quality != nil {
		lb.WriteString(strconv.FormatFloat(*v.Quality, 'g', -1, 64))
	} else {
		lb.WriteByte('.')
	}
	lb.WriteByte('\t')
	if len(v.Filters) == 0 {
		lb.WriteByte('.')
	} else {
		lb.WriteString(strings.Join(v.Filters, ";"))
	}
	lb.WriteByte('\t')
	lb.WriteString(formatInfo(v.Info))

	if len(v.Calls) > 0 {
		lb.WriteString("\tGT")
		for _, c := range v.Calls {
			lb.WriteByte('\t')
			lb.WriteString(formatGenotype(c))
		}
	}
	lb.WriteByte('\n')

	_, err := vw.w.WriteString(lb.String())
	return err
}

// Flush flushes the underlying buffered writer.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}

func allelesToCSV(alts []Allele) string {
	if len(alts) == 0 {
		return "."
	}
	strs := make([]string, len(alts))
	for i, a := range alts {
		strs[i] = string(a)
	}
	return strings.Join(strs, ",")
}

func formatInfo(info map[string][]any) string {
	if len(info) == 0 {
		return "."
	}
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := info[k]
		if len(vals) == 1 {
			if b, ok := vals[0].(bool); ok && b {
				parts = append(parts, k)
				continue
			}
		}
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = fmt.Sprintf("%v", v)
		}
		parts = append(parts, k+"="+strings.Join(strs, ","))
	}
	return strings.Join(parts, ";")
}

func formatGenotype(c Call) string {
	sep := "/"
	if c.Phased {
		sep = "|"
	}
	parts := make([]string, len(c.Genotype))
	for i, g := range c.Genotype {
		if g == -1 {
			parts[i] = "."
		} else {
			parts[i] = strconv.Itoa(g)
		}
	}
	return strings.Join(parts, sep)
}
