package model

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// CustomerProfile holds the RFM features of a single customer, derived once
// per pipeline run from the full transaction set.
type CustomerProfile struct {
	CustomerID string `json:"customer_id"`
	// RecencyDays is whole days between the customer's latest purchase and
	// the reference date.
	RecencyDays int `json:"recency_days"`
	// Frequency is the count of distinct invoices.
	Frequency int `json:"frequency"`
	// Monetary is the revenue from purchase lines only. Returns are tracked
	// separately and never subtracted.
	Monetary      float64   `json:"monetary"`
	Returns       int       `json:"returns"`
	ReturnedValue float64   `json:"returned_value"`
	LastPurchase  time.Time `json:"last_purchase"`
}

// ReferenceDate returns the recency anchor for a transaction set: the maximum
// invoice timestamp, unless a non-zero override is given. Using the dataset
// maximum keeps recency stable for historical datasets.
func ReferenceDate(transactions []Transaction, override time.Time) time.Time {
	if !override.IsZero() {
		return override
	}

	var max time.Time
	for i := range transactions {
		if transactions[i].InvoiceDate.After(max) {
			max = transactions[i].InvoiceDate
		}
	}
	return max
}

// BuildCustomerProfiles aggregates transactions into one profile per distinct
// customer id. Anonymous transactions are skipped. The returned slice is
// sorted by customer id so repeated runs see an identical ordering.
func BuildCustomerProfiles(transactions []Transaction, referenceDate time.Time) []CustomerProfile {
	type accumulator struct {
		invoices      map[string]bool
		monetary      float64
		returns       int
		returnedValue float64
		lastSeen      time.Time
	}

	byCustomer := make(map[string]*accumulator)
	for i := range transactions {
		txn := &transactions[i]
		if txn.IsAnonymous() {
			continue
		}

		acc, exists := byCustomer[txn.CustomerID]
		if !exists {
			acc = &accumulator{invoices: make(map[string]bool)}
			byCustomer[txn.CustomerID] = acc
		}

		acc.invoices[txn.InvoiceNo] = true
		if txn.IsReturn() {
			acc.returns++
			acc.returnedValue += -txn.Amount()
		} else {
			acc.monetary += txn.Amount()
		}
		if txn.InvoiceDate.After(acc.lastSeen) {
			acc.lastSeen = txn.InvoiceDate
		}
	}

	profiles := make([]CustomerProfile, 0, len(byCustomer))
	for customerID, acc := range byCustomer {
		recency := int(referenceDate.Sub(acc.lastSeen).Hours() / 24)
		if recency < 0 {
			// Possible only with a reference date override earlier than the
			// dataset. Clamp instead of reporting negative recency.
			log.WithFields(log.Fields{"customer_id": customerID,
				"last_purchase": acc.lastSeen}).Warn("Transaction newer than reference date. Clamping recency to zero.")
			recency = 0
		}

		profiles = append(profiles, CustomerProfile{
			CustomerID:    customerID,
			RecencyDays:   recency,
			Frequency:     len(acc.invoices),
			Monetary:      acc.monetary,
			Returns:       acc.returns,
			ReturnedValue: acc.returnedValue,
			LastPurchase:  acc.lastSeen,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})
	return profiles
}
