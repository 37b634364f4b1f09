package frame

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// Frame is a lazy handle on a CSV file. No I/O happens until Open.
type Frame struct {
	path string
}

// Scan returns a lazy frame over the CSV at path.
func Scan(path string) *Frame {
	return &Frame{path: path}
}

// Path returns the file the frame reads.
func (f *Frame) Path() string {
	return f.path
}

// Open starts a new pass over the file and validates its header.
// A header missing any of RequiredColumns fails with usaccidents.ErrMalformedCSV.
func (f *Frame) Open() (*Rows, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}

	buf := bufio.NewReader(file)
	if err := skipByteOrderMark(buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	reader := csv.NewReader(buf)
	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file: %w", f.path, usaccidents.ErrMalformedCSV)
		}
		return nil, fmt.Errorf("%s: read header: %w: %w", f.path, usaccidents.ErrMalformedCSV, err)
	}

	if missing := missingColumns(dec.Header()); len(missing) > 0 {
		file.Close()
		return nil, fmt.Errorf("%s: missing columns %s: %w", f.path, strings.Join(missing, ", "), usaccidents.ErrMalformedCSV)
	}

	registerNullable(dec)

	return &Rows{
		path:   f.path,
		file:   file,
		reader: reader,
		dec:    dec,
	}, nil
}

// Collect reads every row into memory.
func (f *Frame) Collect(ctx context.Context) ([]usaccidents.Record, error) {
	rows, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []usaccidents.Record
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, rows.Record())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Rows iterates over the records of one pass.
//
//	rows, err := frame.Scan(path).Open()
//	...
//	defer rows.Close()
//	for rows.Next() {
//	    rec := rows.Record()
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows struct {
	path   string
	file   *os.File
	reader *csv.Reader
	dec    *csvutil.Decoder
	record usaccidents.Record
	count  int64
	err    error
	done   bool
}

// Next advances to the next record. It returns false at end of file or on error.
func (r *Rows) Next() bool {
	if r.done {
		return false
	}

	var rec usaccidents.Record
	if err := r.dec.Decode(&rec); err != nil {
		r.done = true
		if !errors.Is(err, io.EOF) {
			r.err = r.wrap(err)
		}
		return false
	}

	r.record = rec
	r.count++
	return true
}

// Record returns the current record.
func (r *Rows) Record() usaccidents.Record {
	return r.record
}

// Count returns the number of records read so far.
func (r *Rows) Count() int64 {
	return r.count
}

// Err returns the error that stopped iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the underlying file. It is safe to call more than once.
func (r *Rows) Close() error {
	r.done = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Rows) wrap(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%s: %w: %w", r.path, usaccidents.ErrMalformedCSV, err)
	}
	line, _ := r.reader.FieldPos(0)
	return fmt.Errorf("%s line %d: %w: %w", r.path, line, usaccidents.ErrMalformedCSV, err)
}

// skipByteOrderMark consumes a leading UTF-8 BOM so it does not stick to the first header.
func skipByteOrderMark(r *bufio.Reader) error {
	ch, _, err := r.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if ch != '\uFEFF' {
		return r.UnreadRune()
	}
	return nil
}
