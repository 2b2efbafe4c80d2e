package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/diewo77/go-devis/internal/models"
)

// importColumns are the recognized spreadsheet headers. The company, when
// any, comes from the upload form and applies to every imported row.
var importColumns = []string{"client_name", "quote_date", "category", "description", "amount"}

// RowOutcome records what happened to one spreadsheet row, so the import can
// report skipped rows with a reason instead of silently omitting them.
type RowOutcome struct {
	Row      int    `json:"row"` // 1-based data row number, header excluded
	Imported bool   `json:"imported"`
	QuoteID  uint   `json:"quote_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Outcomes []RowOutcome `json:"outcomes"`
}

// ImportService turns spreadsheet rows into quotes, rendering a document for
// each inserted record. One bad row never aborts the whole import.
type ImportService struct {
	DB     *gorm.DB
	Quotes *QuoteService
}

func NewImportService(db *gorm.DB, quotes *QuoteService) *ImportService {
	return &ImportService{DB: db, Quotes: quotes}
}

// ImportFile dispatches on the file extension: .xlsx is read with excelize,
// .xls with a BIFF reader, .csv/.txt as comma-separated text, and a .pdf is
// attached as a single pre-made quote document.
func (s *ImportService) ImportFile(filename string, data []byte, companyID *uint) (ImportResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err := parseWorkbook(data)
		if err != nil {
			return ImportResult{}, err
		}
		return s.importRows(rows, companyID), nil
	case ".xls":
		rows, err := parseLegacyWorkbook(data)
		if err != nil {
			return ImportResult{}, err
		}
		return s.importRows(rows, companyID), nil
	case ".csv", ".txt":
		rows, err := parseCSV(bytes.NewReader(data))
		if err != nil {
			return ImportResult{}, err
		}
		return s.importRows(rows, companyID), nil
	case ".pdf":
		return s.importPDF(filename, data, companyID)
	default:
		return ImportResult{}, fmt.Errorf("unsupported import extension: %s", filepath.Ext(filename))
	}
}

// importRows validates and inserts each row. Required fields missing or an
// unparseable amount skip the row; a successful insert is immediately
// rendered. A failed render leaves the record without a document but the row
// still counts as imported, the quote exists.
func (s *ImportService) importRows(rows []map[string]string, companyID *uint) ImportResult {
	var res ImportResult
	for i, row := range rows {
		outcome := RowOutcome{Row: i + 1}
		client := strings.TrimSpace(row["client_name"])
		date := strings.TrimSpace(row["quote_date"])
		category := strings.TrimSpace(row["category"])
		if client == "" || date == "" || category == "" {
			outcome.Reason = "missing required field"
			res.Skipped++
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}
		amount := 0.0
		if raw := strings.TrimSpace(row["amount"]); raw != "" {
			v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
			if err != nil {
				outcome.Reason = "invalid amount: " + raw
				res.Skipped++
				res.Outcomes = append(res.Outcomes, outcome)
				continue
			}
			amount = v
		}
		q := models.Quote{
			ClientName:  client,
			QuoteDate:   date,
			Category:    category,
			Description: row["description"],
			Amount:      amount,
			CompanyID:   companyID,
		}
		if err := s.Quotes.Create(&q, nil); err != nil {
			outcome.Reason = err.Error()
			res.Skipped++
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}
		outcome.Imported = true
		outcome.QuoteID = q.ID
		res.Imported++
		res.Outcomes = append(res.Outcomes, outcome)
	}
	return res
}

// importPDF creates one quote carrying the uploaded file as its pre-made
// document. The client name is taken from the file name stem.
func (s *ImportService) importPDF(filename string, data []byte, companyID *uint) (ImportResult, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	q := models.Quote{
		ClientName: stem,
		QuoteDate:  time.Now().Format("2006-01-02"),
		Category:   "Import",
		CompanyID:  companyID,
	}
	if err := s.Quotes.Create(&q, data); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{
		Imported: 1,
		Outcomes: []RowOutcome{{Row: 1, Imported: true, QuoteID: q.ID}},
	}, nil
}

// parseCSV maps each record of a headed CSV to column name -> value.
func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return mapRows(records), nil
}

// parseWorkbook reads the first sheet of an Excel workbook.
func parseWorkbook(data []byte) ([]map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return mapRows(records), nil
}

// parseLegacyWorkbook reads the first sheet of a pre-2007 binary workbook.
// excelize only opens OOXML containers, so BIFF files go through a dedicated
// reader.
func parseLegacyWorkbook(data []byte) ([]map[string]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("legacy workbook has no sheets")
	}
	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		record := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			record = append(record, row.Col(j))
		}
		records = append(records, record)
	}
	return mapRows(records), nil
}

// mapRows turns a header row plus data rows into per-row column maps. Header
// names are matched case-insensitively against the expected columns; unknown
// columns are ignored.
func mapRows(records [][]string) []map[string]string {
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	index := make(map[int]string, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for _, col := range importColumns {
			if name == col {
				index[i] = col
			}
		}
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(index))
		for i, col := range index {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
