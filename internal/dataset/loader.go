package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"hr-insights-go/internal/types"
)

// LoadResult carries the parsed records and how many source elements were dropped.
type LoadResult struct {
	Records []types.Record
	Skipped int
}

// Load reads a record source. ".xlsx" files are read with excelize, anything
// else is treated as a JSON array of objects.
func Load(path string) (LoadResult, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return DecodeJSON(f)
}

// DecodeJSON parses a JSON array. Elements that are not objects are skipped.
func DecodeJSON(r io.Reader) (LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return LoadResult{}, fmt.Errorf("decode array: %w", err)
	}
	res := LoadResult{Records: make([]types.Record, 0, len(raw))}
	for _, el := range raw {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || el[0] != '{' {
			res.Skipped++
			continue
		}
		var rec types.Record
		if err := json.Unmarshal(el, &rec); err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// loadXLSX maps the first sheet's header row onto record field names.
func loadXLSX(path string) (LoadResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return LoadResult{}, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return LoadResult{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return LoadResult{}, fmt.Errorf("no header row")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	res := LoadResult{Records: make([]types.Record, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		rec := types.Record{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				rec[header[i]] = cell
			}
		}
		// blank rows come back from excelize as empty slices
		if len(rec) == 0 {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}
