// Package ledger holds the bill arithmetic shared by every billing surface:
// line item totals, the bill total, the paid amount and the outstanding
// balance. Nothing in this package performs I/O.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a persisted bill.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPartial   Status = "PARTIAL"
	StatusCancelled Status = "CANCELLED"
)

// Producible reports whether a draft may be submitted with this status.
// PARTIAL and CANCELLED are only ever set by the server.
func (s Status) Producible() bool {
	return s == StatusPending || s == StatusPaid
}

// ParseStatus accepts any status the server may report.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusPartial, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid bill status: %s", s)
}

// LineItem is a single billable entry. TotalPrice is always
// UnitPrice × Quantity within this package.
type LineItem struct {
	ItemID      string          `json:"itemId,omitempty"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// Persisted reports whether the item already exists on the server.
func (li LineItem) Persisted() bool { return li.ItemID != "" }

// Bill is the server's representation of a bill. The amounts are authoritative
// once the bill has been persisted.
type Bill struct {
	BillID        string          `json:"billId,omitempty"`
	PatientID     string          `json:"patientId"`
	PatientName   string          `json:"patientName,omitempty"`
	BillDate      string          `json:"billDate"`
	Status        Status          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	BalanceAmount decimal.Decimal `json:"balanceAmount"`
	BillItems     []LineItem      `json:"billItems,omitempty"`
}

// Settled reports whether nothing is left to pay on the bill.
func (b *Bill) Settled() bool {
	return !b.BalanceAmount.IsPositive()
}

// Summary is the invariant trio of a ledger.
type Summary struct {
	Total   decimal.Decimal `json:"totalAmount"`
	Paid    decimal.Decimal `json:"paidAmount"`
	Balance decimal.Decimal `json:"balanceAmount"`
}

// Field names a user-editable line item field.
type Field string

const (
	FieldDescription Field = "description"
	FieldUnitPrice   Field = "unitPrice"
	FieldQuantity    Field = "quantity"
)

// ParseField validates a field name coming from user input.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldDescription, FieldUnitPrice, FieldQuantity:
		return f, nil
	}
	return "", fmt.Errorf("unknown line item field: %q", s)
}
