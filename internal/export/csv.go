// Package export writes collected records to CSV files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lukman83/compintel/internal/models"
)

// File names under the exports directory.
const (
	ProductsFile   = "new_products.csv"
	PromotionsFile = "current_promotions.csv"
)

// Summary is the post-write check of a CSV file.
type Summary struct {
	Valid       bool   `json:"valid"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
	FileSize    int64  `json:"file_size"`
	Error       string `json:"error,omitempty"`
}

// Writer writes CSV files into a directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Dir() string { return w.dir }

// WriteProducts writes the export-valid products, first occurrence of each
// UniqueKey only, to new_products.csv.
func (w *Writer) WriteProducts(products []models.Product) (string, Summary, error) {
	seen := make(map[string]bool, len(products))
	rows := make([]map[string]string, 0, len(products))
	for _, p := range products {
		if !p.IsValidForExport() || seen[p.UniqueKey()] {
			continue
		}
		seen[p.UniqueKey()] = true
		rows = append(rows, p.CSVRecord())
	}
	return w.Write(filepath.Join(w.dir, ProductsFile), models.ProductColumns, rows)
}

// WritePromotions is WriteProducts for current_promotions.csv.
func (w *Writer) WritePromotions(promotions []models.Promotion) (string, Summary, error) {
	seen := make(map[string]bool, len(promotions))
	rows := make([]map[string]string, 0, len(promotions))
	for _, p := range promotions {
		if !p.IsValidForExport() || seen[p.UniqueKey()] {
			continue
		}
		seen[p.UniqueKey()] = true
		rows = append(rows, p.CSVRecord())
	}
	return w.Write(filepath.Join(w.dir, PromotionsFile), models.PromotionColumns, rows)
}

// Write creates path with a header row of columns and one line per row,
// cells taken by column name. The returned Summary comes from re-reading
// the written file.
func (w *Writer) Write(path string, columns []string, rows []map[string]string) (string, Summary, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", Summary{}, fmt.Errorf("create exports dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", Summary{}, fmt.Errorf("create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		f.Close()
		return "", Summary{}, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			f.Close()
			return "", Summary{}, fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return "", Summary{}, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", Summary{}, fmt.Errorf("close %s: %w", path, err)
	}
	return path, Validate(path), nil
}

// Validate re-reads a CSV file. A file is valid when it parses and has a
// header plus at least one data row.
func Validate(path string) Summary {
	f, err := os.Open(path)
	if err != nil {
		return Summary{Error: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	var rows, columns int
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Summary{Error: err.Error()}
		}
		if rows == 0 {
			columns = len(rec)
		}
		rows++
	}

	if rows < 2 {
		return Summary{Error: "No data rows found", RowCount: max(0, rows-1)}
	}

	info, err := f.Stat()
	if err != nil {
		return Summary{Error: err.Error()}
	}
	return Summary{
		Valid:       true,
		RowCount:    rows - 1,
		ColumnCount: columns,
		FileSize:    info.Size(),
	}
}
