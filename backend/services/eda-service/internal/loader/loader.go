// Package loader reads charging event CSV exports into raw tables.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"chargeinsight/backend/services/eda-service/internal/models"
)

const op = "load"

// Load reads the CSV file at path. The file is closed before Load returns.
func Load(path string) (*models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.Error{Kind: models.ErrFileNotFound, Op: op, Path: path, Err: err}
		}
		return nil, &models.Error{Kind: models.ErrIO, Op: op, Path: path, Err: err}
	}
	defer f.Close()

	return Read(f, path)
}

// Read parses CSV content with a header row. Every record must have as many fields as the header.
func Read(r io.Reader, name string) (*models.RawTable, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.Error{Kind: models.ErrParse, Op: op, Path: name, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, &models.Error{Kind: models.ErrParse, Op: op, Path: name, Err: err}
	}

	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if !utf8.ValidString(h) {
			return nil, &models.Error{Kind: models.ErrParse, Op: op, Path: name, Err: errors.New("header is not valid UTF-8")}
		}
		if _, dup := seen[h]; dup {
			return nil, &models.Error{Kind: models.ErrParse, Op: op, Path: name, Column: h, Err: errors.New("duplicate column")}
		}
		seen[h] = struct{}{}
	}

	table := &models.RawTable{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row := len(table.Rows) + 1
		if err != nil {
			return nil, &models.Error{Kind: models.ErrParse, Op: op, Path: name, Row: row, Err: err}
		}
		for i, cell := range record {
			if !utf8.ValidString(cell) {
				return nil, &models.Error{
					Kind:   models.ErrParse,
					Op:     op,
					Path:   name,
					Row:    row,
					Column: header[i],
					Err:    fmt.Errorf("invalid UTF-8 in field %d", i+1),
				}
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}
