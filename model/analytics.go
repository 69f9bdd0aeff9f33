package model

import (
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Filter narrows reporting queries by date range, country and segment. Zero
// values leave the corresponding dimension unfiltered. Segment filtering
// needs the segmentation result of the current run.
type Filter struct {
	From     time.Time
	To       time.Time
	Country  string
	Segments []int
}

func (f *Filter) matches(txn *Transaction, segmentation *SegmentationResult) bool {
	if !f.From.IsZero() && txn.InvoiceDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && txn.InvoiceDate.After(f.To) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(f.Country, txn.Country) {
		return false
	}
	if len(f.Segments) > 0 {
		if segmentation == nil || txn.IsAnonymous() {
			return false
		}
		segment, assigned := segmentation.SegmentByCustomer[txn.CustomerID]
		if !assigned {
			return false
		}
		found := false
		for _, wanted := range f.Segments {
			if wanted == segment {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SummaryStats is the headline card of the dashboard.
type SummaryStats struct {
	Rows              int     `json:"rows"`
	DistinctCustomers int     `json:"distinct_customers"`
	DistinctInvoices  int     `json:"distinct_invoices"`
	Revenue           float64 `json:"revenue"`
	Returns           int     `json:"returns"`
	ReturnedValue     float64 `json:"returned_value"`
	AnonymousRows     int     `json:"anonymous_rows"`
	DroppedRows       int     `json:"dropped_rows"`
}

type ProductRevenue struct {
	Description string  `json:"description"`
	Revenue     float64 `json:"revenue"`
	Quantity    int     `json:"quantity"`
}

type MonthRevenue struct {
	Month   time.Time `json:"month"`
	Revenue float64   `json:"revenue"`
}

type CustomerRevenue struct {
	CustomerID string  `json:"customer_id"`
	Monetary   float64 `json:"monetary"`
	Invoices   int     `json:"invoices"`
}

// Summary computes headline statistics over the filtered transaction set.
// Revenue counts purchase lines only; returns are reported separately.
// Anonymous lines are included in revenue but not in the customer count.
func Summary(transactions []Transaction, filter Filter, segmentation *SegmentationResult, dropped int) SummaryStats {
	stats := SummaryStats{DroppedRows: dropped}
	customers := make(map[string]bool)
	invoices := make(map[string]bool)

	for i := range transactions {
		txn := &transactions[i]
		if !filter.matches(txn, segmentation) {
			continue
		}

		stats.Rows++
		invoices[txn.InvoiceNo] = true
		if txn.IsAnonymous() {
			stats.AnonymousRows++
		} else {
			customers[txn.CustomerID] = true
		}

		if txn.IsReturn() {
			stats.Returns++
			stats.ReturnedValue += -txn.Amount()
		} else {
			stats.Revenue += txn.Amount()
		}
	}

	stats.DistinctCustomers = len(customers)
	stats.DistinctInvoices = len(invoices)
	return stats
}

// TopProductsByRevenue ranks product descriptions by purchase revenue.
func TopProductsByRevenue(transactions []Transaction, filter Filter, segmentation *SegmentationResult, limit int) []ProductRevenue {
	type aggregate struct {
		revenue  float64
		quantity int
	}
	byProduct := make(map[string]*aggregate)

	for i := range transactions {
		txn := &transactions[i]
		if txn.IsReturn() || !filter.matches(txn, segmentation) {
			continue
		}

		agg, exists := byProduct[txn.Description]
		if !exists {
			agg = &aggregate{}
			byProduct[txn.Description] = agg
		}
		agg.revenue += txn.Amount()
		agg.quantity += txn.Quantity
	}

	products := make([]ProductRevenue, 0, len(byProduct))
	for description, agg := range byProduct {
		products = append(products, ProductRevenue{
			Description: description,
			Revenue:     agg.revenue,
			Quantity:    agg.quantity,
		})
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].Revenue != products[j].Revenue {
			return products[i].Revenue > products[j].Revenue
		}
		return products[i].Description < products[j].Description
	})

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products
}

// MonthlyRevenue buckets purchase revenue by calendar month, chronological.
func MonthlyRevenue(transactions []Transaction, filter Filter, segmentation *SegmentationResult) []MonthRevenue {
	byMonth := make(map[time.Time]float64)

	for i := range transactions {
		txn := &transactions[i]
		if txn.IsReturn() || !filter.matches(txn, segmentation) {
			continue
		}

		month := now.New(txn.InvoiceDate.UTC()).BeginningOfMonth()
		byMonth[month] += txn.Amount()
	}

	months := make([]MonthRevenue, 0, len(byMonth))
	for month, revenue := range byMonth {
		months = append(months, MonthRevenue{Month: month, Revenue: revenue})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}

// TopCustomersByMonetary ranks identified customers by purchase revenue.
func TopCustomersByMonetary(transactions []Transaction, filter Filter, segmentation *SegmentationResult, limit int) []CustomerRevenue {
	type aggregate struct {
		monetary float64
		invoices map[string]bool
	}
	byCustomer := make(map[string]*aggregate)

	for i := range transactions {
		txn := &transactions[i]
		if txn.IsAnonymous() || !filter.matches(txn, segmentation) {
			continue
		}

		agg, exists := byCustomer[txn.CustomerID]
		if !exists {
			agg = &aggregate{invoices: make(map[string]bool)}
			byCustomer[txn.CustomerID] = agg
		}
		agg.invoices[txn.InvoiceNo] = true
		if !txn.IsReturn() {
			agg.monetary += txn.Amount()
		}
	}

	customers := make([]CustomerRevenue, 0, len(byCustomer))
	for customerID, agg := range byCustomer {
		customers = append(customers, CustomerRevenue{
			CustomerID: customerID,
			Monetary:   agg.monetary,
			Invoices:   len(agg.invoices),
		})
	}

	sort.Slice(customers, func(i, j int) bool {
		if customers[i].Monetary != customers[j].Monetary {
			return customers[i].Monetary > customers[j].Monetary
		}
		return customers[i].CustomerID < customers[j].CustomerID
	})

	if limit > 0 && len(customers) > limit {
		customers = customers[:limit]
	}
	return customers
}
