package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeTxn(invoice, customer string, quantity int, price float64, date time.Time) Transaction {
	return Transaction{
		InvoiceNo:   invoice,
		StockCode:   "SKU-1",
		Description: "WHITE HANGING HEART T-LIGHT HOLDER",
		Quantity:    quantity,
		InvoiceDate: date,
		UnitPrice:   price,
		CustomerID:  customer,
		Country:     "United Kingdom",
	}
}

func TestBuildCustomerProfilesReturnsExcludedFromMonetary(t *testing.T) {
	date := time.Date(2011, 12, 1, 10, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		makeTxn("536365", "17850", 2, 5.0, date),
		makeTxn("536365", "17850", -1, 5.0, date),
	}

	profiles := BuildCustomerProfiles(transactions, ReferenceDate(transactions, time.Time{}))
	assert.Len(t, profiles, 1)

	profile := profiles[0]
	assert.Equal(t, "17850", profile.CustomerID)
	// One purchase and one return on the same invoice.
	assert.Equal(t, 10.0, profile.Monetary)
	assert.Equal(t, 1, profile.Frequency)
	assert.Equal(t, 1, profile.Returns)
	assert.Equal(t, 5.0, profile.ReturnedValue)
}

func TestBuildCustomerProfilesFrequencyCountsDistinctInvoices(t *testing.T) {
	base := time.Date(2011, 6, 1, 0, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		makeTxn("A1", "12583", 1, 2.0, base),
		makeTxn("A1", "12583", 3, 4.0, base),
		makeTxn("A2", "12583", 1, 2.0, base.AddDate(0, 0, 10)),
		makeTxn("A3", "12583", 2, 1.5, base.AddDate(0, 0, 30)),
	}

	profiles := BuildCustomerProfiles(transactions, ReferenceDate(transactions, time.Time{}))
	assert.Len(t, profiles, 1)
	assert.Equal(t, 3, profiles[0].Frequency)
	assert.Equal(t, base.AddDate(0, 0, 30), profiles[0].LastPurchase)
	assert.Equal(t, 0, profiles[0].RecencyDays)
}

func TestBuildCustomerProfilesRecencyNonNegative(t *testing.T) {
	base := time.Date(2011, 3, 1, 0, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		makeTxn("B1", "13047", 1, 9.0, base),
		makeTxn("B2", "12583", 1, 9.0, base.AddDate(0, 2, 0)),
	}

	reference := ReferenceDate(transactions, time.Time{})
	assert.Equal(t, base.AddDate(0, 2, 0), reference)

	for _, profile := range BuildCustomerProfiles(transactions, reference) {
		assert.True(t, profile.RecencyDays >= 0, "recency must never be negative")
	}

	// Override earlier than the data clamps instead of going negative.
	early := BuildCustomerProfiles(transactions, base.AddDate(0, 1, 0))
	for _, profile := range early {
		assert.True(t, profile.RecencyDays >= 0)
	}
}

func TestBuildCustomerProfilesSkipsAnonymous(t *testing.T) {
	date := time.Date(2011, 9, 9, 0, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		makeTxn("C1", "", 5, 1.0, date),
		makeTxn("C2", "14911", 1, 3.0, date),
	}

	profiles := BuildCustomerProfiles(transactions, ReferenceDate(transactions, time.Time{}))
	assert.Len(t, profiles, 1)
	assert.Equal(t, "14911", profiles[0].CustomerID)
}

func segmentationFixture(customers int) []Transaction {
	base := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	transactions := make([]Transaction, 0, customers*3)
	for i := 0; i < customers; i++ {
		customerID := fmt.Sprintf("1%04d", i)
		for j := 0; j <= i%3; j++ {
			transactions = append(transactions, makeTxn(
				fmt.Sprintf("%s-%d", customerID, j), customerID,
				1+i%7, float64(1+i%5), base.AddDate(0, 0, i*2+j)))
		}
	}
	return transactions
}

func TestRunSegmentationInsufficientData(t *testing.T) {
	transactions := segmentationFixture(3)

	result, err := RunSegmentation(transactions, 4, 42, time.Time{})
	assert.Nil(t, result)
	assert.True(t, IsInsufficientDataError(err))
}

func TestRunSegmentationEveryCustomerSegmentedOnce(t *testing.T) {
	transactions := segmentationFixture(30)

	result, err := RunSegmentation(transactions, 4, 42, time.Time{})
	assert.Nil(t, err)
	assert.Len(t, result.Profiles, 30)
	assert.Len(t, result.SegmentByCustomer, 30)

	seen := make(map[string]bool)
	for _, profile := range result.Profiles {
		assert.False(t, seen[profile.CustomerID], "customer %s appears twice", profile.CustomerID)
		seen[profile.CustomerID] = true

		segment, assigned := result.SegmentByCustomer[profile.CustomerID]
		assert.True(t, assigned)
		assert.True(t, segment >= 0 && segment < result.K)
	}
}

func TestRunSegmentationDeterministicForFixedSeed(t *testing.T) {
	transactions := segmentationFixture(50)

	first, err := RunSegmentation(transactions, 4, 42, time.Time{})
	assert.Nil(t, err)
	second, err := RunSegmentation(transactions, 4, 42, time.Time{})
	assert.Nil(t, err)

	assert.Equal(t, first.SegmentByCustomer, second.SegmentByCustomer)
	assert.Equal(t, first.Centers, second.Centers)
	assert.Equal(t, first.WCSS, second.WCSS)
	// Run ids are per-run, never reused.
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunSegmentationNoCustomers(t *testing.T) {
	date := time.Date(2011, 5, 5, 0, 0, 0, 0, time.UTC)
	anonymousOnly := []Transaction{makeTxn("D1", "", 2, 3.0, date)}

	result, err := RunSegmentation(anonymousOnly, 4, 42, time.Time{})
	assert.Nil(t, result)
	assert.True(t, IsDataFormatError(err))
}

func TestSegmentStats(t *testing.T) {
	transactions := segmentationFixture(20)

	result, err := RunSegmentation(transactions, 3, 42, time.Time{})
	assert.Nil(t, err)

	stats := result.SegmentStats()
	assert.Len(t, stats, 3)

	total := 0
	for _, stat := range stats {
		total += stat.Size
		if stat.Size > 0 {
			assert.True(t, stat.AvgMonetary > 0)
			assert.True(t, stat.AvgFrequency >= 1)
		}
	}
	assert.Equal(t, 20, total)
}

func TestElbowCurve(t *testing.T) {
	transactions := segmentationFixture(25)

	curve, err := ElbowCurve(transactions, 2, 5, 42, time.Time{})
	assert.Nil(t, err)
	assert.Len(t, curve, 4)

	_, err = ElbowCurve(transactions, 2, 30, 42, time.Time{})
	assert.True(t, IsInsufficientDataError(err))
}
