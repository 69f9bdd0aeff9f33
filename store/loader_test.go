package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	M "retailscope/model"

	"github.com/stretchr/testify/assert"
)

const fixtureHeader = "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n"

func writeFixtureCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retail.csv")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidCSV(t *testing.T) {
	path := writeFixtureCSV(t, fixtureHeader+
		"536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850.0,United Kingdom\n"+
		"C536379,D,Discount,-1,2010-12-01 09:41:00,27.50,14527,United Kingdom\n")

	result, err := Load(path, LoadOptions{})
	assert.Nil(t, err)
	assert.Len(t, result.Transactions, 2)
	assert.Equal(t, 0, result.Stats.Total())

	first := result.Transactions[0]
	assert.Equal(t, "536365", first.InvoiceNo)
	assert.Equal(t, 6, first.Quantity)
	assert.Equal(t, 2.55, first.UnitPrice)
	assert.Equal(t, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), first.InvoiceDate)
	// Spreadsheet float suffix is stripped.
	assert.Equal(t, "17850", first.CustomerID)

	second := result.Transactions[1]
	assert.True(t, second.IsReturn())
	assert.Equal(t, "14527", second.CustomerID)
}

func TestLoadMissingFile(t *testing.T) {
	result, err := Load(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	assert.Nil(t, result)
	assert.True(t, M.IsDataAccessError(err))
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	path := writeFixtureCSV(t, "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,CustomerID,Country\n"+
		"536365,85123A,HOLDER,6,12/1/2010 8:26,17850,United Kingdom\n")

	result, err := Load(path, LoadOptions{})
	assert.Nil(t, result)
	assert.True(t, M.IsDataFormatError(err))
	assert.Contains(t, err.Error(), "unitprice")
}

func TestLoadHeaderCaseAndSpacesTolerated(t *testing.T) {
	path := writeFixtureCSV(t, "invoiceno, STOCKCODE ,description,quantity,invoicedate,unitprice,customerid,country\n"+
		"536365,85123A,HOLDER,6,12/1/2010 8:26,2.55,17850,United Kingdom\n")

	result, err := Load(path, LoadOptions{})
	assert.Nil(t, err)
	assert.Len(t, result.Transactions, 1)
	assert.Equal(t, "85123A", result.Transactions[0].StockCode)
}

func TestLoadDropsInvalidRows(t *testing.T) {
	path := writeFixtureCSV(t, fixtureHeader+
		"1,S,OK,1,12/1/2010 8:26,2.55,17850,United Kingdom\n"+
		"2,S,BAD QTY,six,12/1/2010 8:26,2.55,17850,United Kingdom\n"+
		"3,S,NEGATIVE PRICE,1,12/1/2010 8:26,-2.55,17850,United Kingdom\n"+
		"4,S,BAD DATE,1,yesterday,2.55,17850,United Kingdom\n")

	result, err := Load(path, LoadOptions{})
	assert.Nil(t, err)
	assert.Len(t, result.Transactions, 1)
	assert.Equal(t, 1, result.Stats.BadQuantity)
	assert.Equal(t, 1, result.Stats.BadUnitPrice)
	assert.Equal(t, 1, result.Stats.BadTimestamp)
	assert.Equal(t, 3, result.Stats.Total())
}

func TestLoadHeaderOnly(t *testing.T) {
	path := writeFixtureCSV(t, fixtureHeader)

	result, err := Load(path, LoadOptions{})
	assert.Nil(t, result)
	assert.True(t, M.IsDataFormatError(err))
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFixtureCSV(t, "")

	result, err := Load(path, LoadOptions{})
	assert.Nil(t, result)
	assert.True(t, M.IsDataFormatError(err))
}

func TestDatasetRefresh(t *testing.T) {
	rows := fixtureHeader
	base := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		rows += fixtureRow(i, base)
	}
	path := writeFixtureCSV(t, rows)

	dataset, err := NewDataset(path, LoadOptions{}, 3, 42, time.Time{})
	assert.Nil(t, err)

	first := dataset.Segmentation()
	assert.Equal(t, 3, first.K)
	assert.Len(t, first.Profiles, 12)

	// Refresh with too many clusters fails and keeps the previous run.
	err = dataset.Refresh(20, 42, time.Time{})
	assert.True(t, M.IsInsufficientDataError(err))
	assert.Equal(t, first.RunID, dataset.Segmentation().RunID)

	assert.Nil(t, dataset.Refresh(4, 7, time.Time{}))
	second := dataset.Segmentation()
	assert.Equal(t, 4, second.K)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func fixtureRow(i int, base time.Time) string {
	date := base.AddDate(0, 0, i*3)
	return fmt.Sprintf("I%d,S1,PRODUCT,%d,%s,2.50,1%d,United Kingdom\n",
		1000+i, 1+i%5, date.Format("2006-01-02 15:04:05"), 7000+i)
}
