package store

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	M "retailscope/model"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// Required dataset columns. Header matching is case-insensitive with
// surrounding whitespace stripped.
var requiredColumns = []string{
	"invoiceno", "stockcode", "description", "quantity",
	"invoicedate", "unitprice", "customerid", "country",
}

// Accepted invoice timestamp layouts. The public retail exports use the
// US-style short form; ISO forms cover cleaned re-exports.
var timestampLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type LoadOptions struct {
	// ShowProgress renders a terminal progress bar during ingest. Meant for
	// the CLI report, not the server.
	ShowProgress bool
}

// LoadResult carries the parsed transactions together with the headers seen
// and per-reason dropped-row counts.
type LoadResult struct {
	Transactions []M.Transaction
	Columns      []string
	Stats        M.RowValidationStats
}

// Load reads the dataset at path into memory. Dispatches on file extension:
// .xlsx through excelize, anything else as CSV. Missing required columns or
// zero valid rows fail with DataFormatError; unreadable files with
// DataAccessError. Invalid rows are dropped and counted.
func Load(path string, opts LoadOptions) (*LoadResult, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.Wrapf(M.DataFormatError, "%s: no header row", path)
	}

	columnIndex, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Columns: rows[0]}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(rows) - 1))
	}

	for _, record := range rows[1:] {
		if bar != nil {
			_ = bar.Add(1)
		}
		txn, reason := parseRecord(record, columnIndex)
		if reason != "" {
			countDrop(&result.Stats, reason)
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	if len(result.Transactions) == 0 {
		return nil, errors.Wrapf(M.DataFormatError, "%s: no valid rows", path)
	}

	log.WithFields(log.Fields{"path": path, "rows": len(result.Transactions),
		"dropped": result.Stats.Total()}).Info("Dataset loaded.")
	return result, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(M.DataAccessError, "open %s: %v", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(M.DataFormatError, "read %s: %v", path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(M.DataAccessError, "open %s: %v", path, err)
	}

	sheet := file.GetSheetName(file.GetActiveSheetIndex())
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(M.DataFormatError, "sheet %s of %s: %v", sheet, path, err)
	}
	return rows, nil
}

func mapColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, column := range requiredColumns {
		if _, found := index[column]; !found {
			return nil, errors.Wrapf(M.DataFormatError, "missing column %q", column)
		}
	}
	return index, nil
}

// parseRecord validates one data row. Returns the drop reason for invalid
// rows, empty string on success.
func parseRecord(record []string, columnIndex map[string]int) (M.Transaction, string) {
	field := func(column string) string {
		i := columnIndex[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	maxIndex := 0
	for _, column := range []string{"invoiceno", "quantity", "invoicedate", "unitprice"} {
		if columnIndex[column] > maxIndex {
			maxIndex = columnIndex[column]
		}
	}
	if len(record) <= maxIndex {
		return M.Transaction{}, "short_record"
	}

	quantity, err := strconv.Atoi(field("quantity"))
	if err != nil {
		return M.Transaction{}, "bad_quantity"
	}

	unitPrice, err := strconv.ParseFloat(field("unitprice"), 64)
	if err != nil || unitPrice < 0 {
		return M.Transaction{}, "bad_unit_price"
	}

	invoiceDate, err := parseTimestamp(field("invoicedate"))
	if err != nil {
		return M.Transaction{}, "bad_timestamp"
	}

	return M.Transaction{
		InvoiceNo:   field("invoiceno"),
		StockCode:   field("stockcode"),
		Description: field("description"),
		Quantity:    quantity,
		InvoiceDate: invoiceDate,
		UnitPrice:   unitPrice,
		CustomerID:  normalizeCustomerID(field("customerid")),
		Country:     field("country"),
	}, ""
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// normalizeCustomerID strips the ".0" suffix that spreadsheet exports attach
// to numeric customer ids.
func normalizeCustomerID(raw string) string {
	return strings.TrimSuffix(raw, ".0")
}

func countDrop(stats *M.RowValidationStats, reason string) {
	switch reason {
	case "bad_quantity":
		stats.BadQuantity++
	case "bad_unit_price":
		stats.BadUnitPrice++
	case "bad_timestamp":
		stats.BadTimestamp++
	case "short_record":
		stats.ShortRecord++
	}
}
