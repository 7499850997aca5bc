package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	apperrors "pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	errNoColumns   = errors.New("no columns to parse from file")
	errInvalidUTF8 = errors.New("file is not UTF-8 encoded text")
)

// LoadCSV parses an uploaded file into a SalesTable. The first record is the
// header. Short records are padded with empty cells; records longer than the
// header make the whole file unparseable.
func LoadCSV(data []byte) (*models.SalesTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, unparseable(errInvalidUTF8)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, unparseable(errNoColumns)
	}
	if err != nil {
		return nil, unparseable(err)
	}

	table := &models.SalesTable{
		Columns: headerNames(header),
		Rows:    make([][]string, 0, 64),
	}
	width := len(table.Columns)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, unparseable(err)
		}

		if len(record) > width {
			line, _ := reader.FieldPos(0)
			return nil, unparseable(fmt.Errorf("expected %d fields in line %d, saw %d", width, line, len(record)))
		}
		if len(record) < width {
			padded := make([]string, width)
			copy(padded, record)
			record = padded
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func unparseable(err error) error {
	return apperrors.UnparseableUpload(err, "uploaded file could not be parsed as CSV")
}

// headerNames names blank header cells "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2", ... so every column is addressable by name.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	dupes := make(map[string]int)

	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			dupes[h]++
			name = h + "." + strconv.Itoa(dupes[h])
		}
		used[name] = true
		names[i] = name
	}
	return names
}
