package model

import (
	"math"
	"time"
)

// DateLayout is the canonical format of the derived date column.
const DateLayout = "2006-01-02"

// PriceRecord is one row of the canonical daily OHLCV table.
//
// Price fields use NaN to carry a null delivered by a provider; Volume
// stays a float64 in the working table so null and fractional payload
// values survive into validation, and is coerced to a whole number at
// the storage boundary.
type PriceRecord struct {
	Datetime time.Time
	Date     string
	Symbol   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
	Currency string
	Exchange string
}

// HasDatetime reports whether the row carries a usable timestamp.
func (r PriceRecord) HasDatetime() bool {
	return !r.Datetime.IsZero()
}

// IsNull reports whether v encodes a missing value.
func IsNull(v float64) bool {
	return math.IsNaN(v)
}
