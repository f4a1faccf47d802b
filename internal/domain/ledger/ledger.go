package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrExceedsBalance     = errors.New("amount exceeds outstanding balance")
	ErrMissingPatient     = errors.New("patient is required")
	ErrIncompleteLineItem = errors.New("incomplete line item")
)

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

const (
	// MaxScale is the most fractional digits accepted from user input.
	MaxScale = 8
	// maxIntDigits bounds the integer part of accepted input.
	maxIntDigits = 15
)

// parseBounded parses a decimal and rejects values whose exponent would make
// later arithmetic or formatting expensive, such as "1e200000000".
func parseBounded(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	if d.IsZero() {
		return decimal.Zero, true
	}
	exp := int64(d.Exponent())
	if exp < -MaxScale || int64(d.NumDigits())+exp > maxIntDigits {
		return decimal.Zero, false
	}
	return d, true
}

// NewLineItem returns the blank item a user starts editing from. It is
// zero-priced and so fails ValidateBillForSubmission until edited.
func NewLineItem() LineItem {
	return LineItem{
		UnitPrice:  decimal.Zero,
		Quantity:   1,
		TotalPrice: decimal.Zero,
	}
}

// ParseAmount parses a money form field. Empty, malformed, negative and
// out-of-range input all yield zero.
func ParseAmount(s string) decimal.Decimal {
	d, ok := parseBounded(s)
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseQuantity parses a quantity form field. Fractions are truncated;
// anything unparseable, negative or absurdly large yields zero.
func ParseQuantity(s string) int {
	d, ok := parseBounded(s)
	if !ok || d.IsNegative() || d.GreaterThan(maxQuantity) {
		return 0
	}
	return int(d.IntPart())
}

// LineTotal is unitPrice × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// InRange reports whether index addresses an item of items.
func InRange(items []LineItem, index int) bool {
	return index >= 0 && index < len(items)
}

// SetLineItemField returns a copy of items with one field of items[index]
// replaced. Price and quantity edits recompute that item's TotalPrice; no
// other item changes. An out-of-range index or unknown field panics.
func SetLineItemField(items []LineItem, index int, field Field, value string) []LineItem {
	if !InRange(items, index) {
		panic(fmt.Sprintf("ledger: line item index %d out of range [0,%d)", index, len(items)))
	}
	out := clone(items)
	item := &out[index]
	switch field {
	case FieldDescription:
		item.Description = value
	case FieldUnitPrice:
		item.UnitPrice = ParseAmount(value)
		item.TotalPrice = LineTotal(item.UnitPrice, item.Quantity)
	case FieldQuantity:
		item.Quantity = ParseQuantity(value)
		item.TotalPrice = LineTotal(item.UnitPrice, item.Quantity)
	default:
		panic(fmt.Sprintf("ledger: unknown line item field %q", field))
	}
	return out
}

// AddLineItem appends a blank item.
func AddLineItem(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, NewLineItem())
}

// RemoveLineItem drops items[index]. A single remaining item is never
// removed: a draft always keeps at least one line.
func RemoveLineItem(items []LineItem, index int) []LineItem {
	if len(items) == 1 {
		return clone(items)
	}
	if !InRange(items, index) {
		panic(fmt.Sprintf("ledger: line item index %d out of range [0,%d)", index, len(items)))
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...)
}

// ComputeTotal sums the items' TotalPrice.
func ComputeTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

// ComputeBalance is total − paid, unclamped.
func ComputeBalance(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}

// ClampPaid bounds paid to [0, total].
func ClampPaid(paid, total decimal.Decimal) decimal.Decimal {
	if paid.IsNegative() {
		return decimal.Zero
	}
	if paid.GreaterThan(total) {
		return total
	}
	return paid
}

// Summarize returns the invariant trio for a draft, clamping paid.
func Summarize(items []LineItem, paid decimal.Decimal) Summary {
	total := ComputeTotal(items)
	paid = ClampPaid(paid, total)
	return Summary{
		Total:   total,
		Paid:    paid,
		Balance: ComputeBalance(total, paid),
	}
}

// ValidatePaymentAmount parses a user-entered payment and checks it against
// the outstanding balance.
func ValidatePaymentAmount(entered string, balance decimal.Decimal) (decimal.Decimal, error) {
	amount, err := ParsePaymentAmount(entered)
	if err != nil {
		return decimal.Zero, err
	}
	return ValidatePayment(amount, balance)
}

// ParsePaymentAmount is the balance-independent half of
// ValidatePaymentAmount: the input must be a number greater than zero.
func ParsePaymentAmount(entered string) (decimal.Decimal, error) {
	amount, ok := parseBounded(entered)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: not a number in range", ErrInvalidAmount)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return amount, nil
}

// ValidatePayment succeeds only when 0 < amount <= balance.
func ValidatePayment(amount, balance decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if amount.GreaterThan(balance) {
		return decimal.Zero, fmt.Errorf("%w: %s > %s", ErrExceedsBalance, amount.String(), balance.String())
	}
	return amount, nil
}

// ValidateBillForSubmission checks that a draft can be sent to the server.
// A zero-valued item counts as incomplete rather than as a free line.
func ValidateBillForSubmission(patientID string, items []LineItem) error {
	if strings.TrimSpace(patientID) == "" {
		return ErrMissingPatient
	}
	for i, it := range items {
		if it.Description == "" {
			return fmt.Errorf("%w: item %d has no description", ErrIncompleteLineItem, i+1)
		}
		if it.TotalPrice.IsZero() {
			return fmt.Errorf("%w: item %d has no value", ErrIncompleteLineItem, i+1)
		}
	}
	return nil
}

// ItemFromPersisted brings a server item into draft shape. Older records may
// lack a quantity or a unit price; the unit price is then derived from the
// stored total.
func ItemFromPersisted(it LineItem) LineItem {
	if it.Quantity <= 0 {
		it.Quantity = 1
	}
	if it.UnitPrice.IsZero() && !it.TotalPrice.IsZero() {
		it.UnitPrice = it.TotalPrice.Div(decimal.NewFromInt(int64(it.Quantity)))
		// A total that does not divide evenly becomes a single line so that
		// TotalPrice stays UnitPrice × Quantity.
		if !LineTotal(it.UnitPrice, it.Quantity).Equal(it.TotalPrice) {
			it.Quantity = 1
			it.UnitPrice = it.TotalPrice
		}
	}
	return it
}

func clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
