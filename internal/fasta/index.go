package fasta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// entry is one samtools .fai record: name, length, byte offset of the
// first base, bases per line, and bytes per line (bases + line ending).
type entry struct {
	length    int64
	offset    int64
	lineBases int64
	lineWidth int64
}

// FileIndex is an Index backed by a FASTA file and its .fai sidecar,
// grounded on grailbio's indexedFasta: it never loads the whole FASTA
// into memory, instead seeking to a computed byte offset and stripping
// line breaks out of the bytes read back. A mutex guards the index maps
// (including the missing-chromosome cache) so one FileIndex can be shared
// by concurrent pipeline workers; each Get allocates its own read buffer.
type FileIndex struct {
	mu      sync.Mutex
	reader  io.ReaderAt
	entries map[string]entry
	order   []string // reference names in .fai order

	missing map[string]bool // chromosomes known not to be in the index
}

// NewFileIndex builds a FileIndex from an open FASTA file (accessed via
// ReaderAt so concurrent reads don't race on a shared file offset) and its
// .fai index contents.
func NewFileIndex(fastaReader io.ReaderAt, faiContents io.Reader) (*FileIndex, error) {
	fi := &FileIndex{
		reader:  fastaReader,
		entries: make(map[string]entry),
		missing: make(map[string]bool),
	}

	raw, err := io.ReadAll(faiContents)
	if err != nil {
		return nil, fmt.Errorf("read .fai index: %w", err)
	}
	lineNo := 0
	for _, line := range bytes.Split(raw, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		lineNo++
		if bytes.ContainsRune(line, '\r') {
			return nil, &ErrBadFasta{Reason: fmt.Sprintf(".fai line %d contains a carriage return (CRLF index)", lineNo)}
		}
		fields := strings.Split(string(line), "\t")
		if len(fields) != 5 {
			return nil, &ErrBadFasta{Reason: fmt.Sprintf(".fai line %d: expected 5 tab-separated fields, got %d", lineNo, len(fields))}
		}
		length, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &ErrBadFasta{Reason: fmt.Sprintf(".fai line %d: bad length: %v", lineNo, err)}
		}
		offset, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, &ErrBadFasta{Reason: fmt.Sprintf(".fai line %d: bad offset: %v", lineNo, err)}
		}
		lineBases, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, &ErrBadFasta{Reason: fmt.Sprintf(".fai line %d: bad line bases: %v", lineNo, err)}
		}
		lineWidth, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, &ErrBadFasta{Reason: fmt.Sprintf(".fai line %d: bad line width: %v", lineNo, err)}
		}
		name := fields[0]
		fi.entries[name] = entry{length: length, offset: offset, lineBases: lineBases, lineWidth: lineWidth}
		fi.order = append(fi.order, name)
	}
	return fi, nil
}

// ChromosomeSize implements Index.
func (fi *FileIndex) ChromosomeSize(referenceName string) int64 {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	e, ok := fi.entries[referenceName]
	if !ok {
		return -1
	}
	return e.length
}

// ReferenceOrder implements Index.
func (fi *FileIndex) ReferenceOrder() []ReferenceLength {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	out := make([]ReferenceLength, 0, len(fi.order))
	for _, name := range fi.order {
		out = append(out, ReferenceLength{Name: name, Length: fi.entries[name].length})
	}
	return out
}

// Get implements Index.
func (fi *FileIndex) Get(ctx context.Context, referenceName string, start, end int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fi.mu.Lock()
	defer fi.mu.Unlock()

	if fi.missing[referenceName] {
		return Missing, nil
	}
	e, ok := fi.entries[referenceName]
	if !ok {
		fi.missing[referenceName] = true
		return Missing, nil
	}

	if start == -1 {
		start = 0
	}
	if end == -1 || end > e.length {
		end = e.length
	}
	if start > end {
		return "", fmt.Errorf("fasta: start %d > end %d for %s", start, end, referenceName)
	}
	if start == end {
		return "", nil
	}

	byteOffset := e.offset + start + (start/e.lineBases)*(e.lineWidth-e.lineBases)
	lineNewlineBytes := e.lineWidth - e.lineBases
	remainingInLine := e.lineBases - start%e.lineBases
	span := end - start
	newlines := int64(0)
	if span > remainingInLine {
		newlines = 1 + (span-remainingInLine-1)/e.lineBases
	}
	readLen := span + newlines*lineNewlineBytes

	raw := make([]byte, readLen)
	n, err := fi.reader.ReadAt(raw, byteOffset)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("fasta: read %s:%d-%d: %w", referenceName, start, end, err)
	}
	raw = raw[:n]

	out := make([]byte, 0, span)
	for _, b := range raw {
		if b == '\n' || b == '\r' {
			if b == '\r' {
				return "", &ErrBadFasta{Reason: fmt.Sprintf("%s contains a carriage return (CRLF fasta)", referenceName)}
			}
			continue
		}
		out = append(out, upper(b))
	}
	if int64(len(out)) != span {
		return "", fmt.Errorf("fasta: short read for %s:%d-%d: got %d bases, want %d", referenceName, start, end, len(out), span)
	}
	return string(out), nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
