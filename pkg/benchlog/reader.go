package benchlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"
)

const (
	initialLineBuffer = 64 * 1024
	// maxLineSize bounds a single record. "starting run" lines embed the
	// whole changeset description and db options.
	maxLineSize = 64 * 1024 * 1024
)

// Extensions lists the recognized log file suffixes, longest first.
var Extensions = []string{".jsonl.zst", ".jsonl.gz", ".jsonl"}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

var parserPool fastjson.ParserPool

// IsLogFile reports whether name ends in a recognized log extension.
func IsLogFile(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	return false
}

// RunName derives a run name from a log path: the base name with the log
// extension stripped.
func RunName(p string) string {
	base := path.Base(filepath.ToSlash(p))

	for _, ext := range Extensions {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}

	return base
}

// Reader yields the records of a line-delimited JSON log one at a time, in
// file order. Its API is modeled on bufio.Scanner: call Next until it
// returns false, then check Err. A Reader is single pass; to read a file
// again, open a new Reader.
//
// Compressed input (gzip or zstd) is detected from its magic bytes and
// decompressed transparently.
type Reader struct {
	file    string
	closers []func() error
	scanner *bufio.Scanner
	parser  *fastjson.Parser
	rec     Record
	line    int
	err     error
}

// Open opens the log file at name. The caller must Close the Reader.
func Open(name string) (*Reader, error) {
	f, err := os.Open(name) //nolint:gosec // name comes from the configured results location
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	rd, err := NewReader(f, name)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	rd.closers = append(rd.closers, f.Close)

	return rd, nil
}

// NewReader returns a Reader over r. file is used in error messages only.
// Closing the Reader does not close r.
func NewReader(r io.Reader, file string) (*Reader, error) {
	br := bufio.NewReader(r)
	rd := &Reader{file: file}

	// A short or empty input is simply not compressed.
	magic, _ := br.Peek(len(zstdMagic))

	var src io.Reader = br

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", file, err)
		}

		rd.closers = append(rd.closers, zr.Close)
		src = zr
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream %s: %w", file, err)
		}

		rd.closers = append(rd.closers, func() error {
			zr.Close()

			return nil
		})
		src = zr
	}

	rd.scanner = bufio.NewScanner(src)
	rd.scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineSize)
	rd.parser = parserPool.Get()

	return rd, nil
}

// Next advances to the next non-empty line. It returns false at the end of
// input or on the first error.
func (r *Reader) Next() bool {
	if r.err != nil || r.scanner == nil {
		return false
	}

	for r.scanner.Scan() {
		r.line++

		b := bytes.TrimSpace(r.scanner.Bytes())
		if len(b) == 0 {
			continue
		}

		v, err := r.parser.ParseBytes(b)
		if err != nil {
			r.err = r.errorf(fmt.Errorf("%w: %v", ErrMalformedRecord, err))

			return false
		}

		if v.Type() != fastjson.TypeObject {
			r.err = r.errorf(fmt.Errorf("%w: expected object, got %s", ErrMalformedRecord, v.Type()))

			return false
		}

		r.rec = Record{v: v}

		return true
	}

	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			r.err = r.errorf(fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedRecord, maxLineSize))
		} else {
			r.err = fmt.Errorf("reading %s: %w", r.file, err)
		}
	}

	return false
}

// Record returns the current record. It is invalidated by the next call to
// Next.
func (r *Reader) Record() Record {
	return r.rec
}

// Line returns the 1-based line number of the current record.
func (r *Reader) Line() int {
	return r.line
}

// File returns the name the Reader reports in errors.
func (r *Reader) File() string {
	return r.file
}

// Err returns the first error encountered by Next.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the decompressor and, for Readers created by Open, the
// underlying file.
func (r *Reader) Close() error {
	if r.parser != nil {
		parserPool.Put(r.parser)
		r.parser = nil
	}

	r.scanner = nil
	r.rec = Record{}

	var errs []error

	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	r.closers = nil

	return errors.Join(errs...)
}

func (r *Reader) errorf(err error) error {
	return &RecordError{File: r.file, Line: r.line, Err: err}
}
