// internal/domain/boleto.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Boleto is a payable external instrument identified by its barcode.
// The service does not own a boleto's lifecycle; it only validates the
// instruction and records that it was paid.
type Boleto struct {
	BarCode     string          `json:"bar_code"`
	Amount      decimal.Decimal `json:"amount"`
	Beneficiary string          `json:"beneficiary"`
	DueDate     time.Time       `json:"due_date"`
}

// ValidBarCode reports whether code has the shape of a boleto barcode:
// 44 digits (barcode) or 47 digits (typeable line).
func ValidBarCode(code string) bool {
	if len(code) != 44 && len(code) != 47 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
