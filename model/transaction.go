package model

import (
	"time"
)

// Transaction is one line item of an invoice. Negative Quantity represents
// a return of previously purchased stock.
type Transaction struct {
	InvoiceNo   string    `json:"invoice_no"`
	StockCode   string    `json:"stock_code"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	InvoiceDate time.Time `json:"invoice_date"`
	UnitPrice   float64   `json:"unit_price"`
	// CustomerID is empty for anonymous transactions. Anonymous lines are
	// kept for revenue reporting but excluded from per-customer profiles.
	CustomerID string `json:"customer_id"`
	Country    string `json:"country"`
}

func (t *Transaction) Amount() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

func (t *Transaction) IsReturn() bool {
	return t.Quantity < 0
}

func (t *Transaction) IsAnonymous() bool {
	return t.CustomerID == ""
}
