package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DecodeReader returns r as UTF-8. Input that is not valid UTF-8 is
// treated as Latin-1 (windows-1252), the encoding NCES exports fall back to.
func DecodeReader(r io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}
	enc, err := htmlindex.Get("latin1")
	if err != nil {
		return nil, fmt.Errorf("latin1 decoder: %w", err)
	}
	return transform.NewReader(bytes.NewReader(data), enc.NewDecoder()), nil
}

// ReadCSV parses a delimited stream whose first record is the header.
func ReadCSV(r io.Reader, comma rune) (*Dataset, error) {
	decoded, err := DecodeReader(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(decoded)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty input: no header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	d := &Dataset{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(d.Rows)+1, err)
		}
		d.Rows = append(d.Rows, rec)
	}
	return d, nil
}

// ReadFile reads a .csv or .tsv file.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	d, err := ReadCSV(f, commaFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, d *Dataset, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}
	if err := cw.Write(d.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range d.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes d to path, choosing the delimiter from the extension.
func WriteFile(path string, d *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, d, commaFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func commaFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}
