package model

import (
	"errors"
)

var (
	// DataAccessError - dataset file missing or unreadable. Fatal, aborts the run.
	DataAccessError = errors.New("dataset file could not be read")
	// DataFormatError - required column missing or no valid rows. Fatal, aborts the run.
	DataFormatError = errors.New("dataset does not match the expected schema")
	// InsufficientDataError - fewer distinct customers than requested clusters. Fatal.
	InsufficientDataError = errors.New("not enough distinct customers for requested cluster count")
)

func IsDataAccessError(err error) bool {
	return errors.Is(err, DataAccessError)
}

func IsDataFormatError(err error) bool {
	return errors.Is(err, DataFormatError)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, InsufficientDataError)
}

// RowValidationStats counts rows dropped during load, per reason. Row level
// validation failures are reported, never fatal.
type RowValidationStats struct {
	BadQuantity  int `json:"bad_quantity"`
	BadUnitPrice int `json:"bad_unit_price"`
	BadTimestamp int `json:"bad_timestamp"`
	ShortRecord  int `json:"short_record"`
}

func (s RowValidationStats) Total() int {
	return s.BadQuantity + s.BadUnitPrice + s.BadTimestamp + s.ShortRecord
}
