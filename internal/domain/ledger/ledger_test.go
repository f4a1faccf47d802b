package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(desc, unit string, qty int) LineItem {
	u := d(unit)
	return LineItem{Description: desc, UnitPrice: u, Quantity: qty, TotalPrice: LineTotal(u, qty)}
}

func sumOfFactors(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// -- SetLineItemField --

func TestSetLineItemField_QuantityRecomputesTotal(t *testing.T) {
	items := []LineItem{item("Consultation", "500", 1)}
	got := SetLineItemField(items, 0, FieldQuantity, "2")

	if got[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", got[0].Quantity)
	}
	if !got[0].TotalPrice.Equal(d("1000")) {
		t.Errorf("expected totalPrice 1000, got %s", got[0].TotalPrice)
	}
	if !ComputeTotal(got).Equal(d("1000")) {
		t.Errorf("expected total 1000, got %s", ComputeTotal(got))
	}
}

func TestSetLineItemField_UnitPriceRecomputesTotal(t *testing.T) {
	items := []LineItem{item("X-Ray", "0", 3)}
	got := SetLineItemField(items, 0, FieldUnitPrice, "12.50")
	if !got[0].TotalPrice.Equal(d("37.5")) {
		t.Errorf("expected 37.5, got %s", got[0].TotalPrice)
	}
}

func TestSetLineItemField_InvalidNumbersParseToZero(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
	}{
		{"empty price", FieldUnitPrice, ""},
		{"garbage price", FieldUnitPrice, "abc"},
		{"negative price", FieldUnitPrice, "-5"},
		{"empty quantity", FieldQuantity, ""},
		{"garbage quantity", FieldQuantity, "two"},
		{"negative quantity", FieldQuantity, "-1"},
		{"huge quantity", FieldQuantity, "1e20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []LineItem{item("Lab", "100", 2)}
			got := SetLineItemField(items, 0, tt.field, tt.value)
			if !got[0].TotalPrice.IsZero() {
				t.Errorf("expected totalPrice 0, got %s", got[0].TotalPrice)
			}
		})
	}
}

func TestSetLineItemField_FractionalQuantityTruncates(t *testing.T) {
	got := SetLineItemField([]LineItem{item("Lab", "10", 1)}, 0, FieldQuantity, "2.9")
	if got[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", got[0].Quantity)
	}
}

func TestSetLineItemField_DescriptionDoesNotRecompute(t *testing.T) {
	items := []LineItem{item("Old", "10", 2)}
	items[0].TotalPrice = d("99") // server-stored value that diverges
	got := SetLineItemField(items, 0, FieldDescription, "  New  ")
	if got[0].Description != "  New  " {
		t.Errorf("expected raw description, got %q", got[0].Description)
	}
	if !got[0].TotalPrice.Equal(d("99")) {
		t.Errorf("description edit must not touch totalPrice, got %s", got[0].TotalPrice)
	}
}

func TestSetLineItemField_OnlyTargetChanges(t *testing.T) {
	items := []LineItem{item("A", "1", 1), item("B", "2", 2), item("C", "3", 3)}
	got := SetLineItemField(items, 1, FieldQuantity, "5")

	if got[0] != items[0] || got[2] != items[2] {
		t.Error("items outside the edited index changed")
	}
	if items[1].Quantity != 2 {
		t.Error("input slice was mutated")
	}
	if got[1].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", got[1].Quantity)
	}
}

func TestSetLineItemField_OutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	SetLineItemField([]LineItem{NewLineItem()}, 1, FieldQuantity, "1")
}

func TestSetLineItemField_UnknownFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown field")
		}
	}()
	SetLineItemField([]LineItem{NewLineItem()}, 0, Field("totalPrice"), "1")
}

// -- AddLineItem / RemoveLineItem --

func TestAddLineItem_TwiceOnEmpty(t *testing.T) {
	got := AddLineItem(AddLineItem(nil))
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	for i, it := range got {
		if it.Description != "" || !it.UnitPrice.IsZero() || it.Quantity != 1 || !it.TotalPrice.IsZero() {
			t.Errorf("item %d is not blank: %+v", i, it)
		}
	}
	if !ComputeTotal(got).IsZero() {
		t.Errorf("expected total 0, got %s", ComputeTotal(got))
	}
}

func TestAddLineItem_DoesNotAliasInput(t *testing.T) {
	items := make([]LineItem, 1, 10)
	items[0] = item("A", "1", 1)
	a := AddLineItem(items)
	b := AddLineItem(items)
	a[1].Description = "changed"
	if b[1].Description != "" {
		t.Error("results of AddLineItem share storage")
	}
}

func TestRemoveLineItem_SingleItemIsNoop(t *testing.T) {
	x := item("Consultation", "500", 1)
	got := RemoveLineItem([]LineItem{x}, 0)
	if len(got) != 1 || got[0] != x {
		t.Errorf("expected [x], got %+v", got)
	}
}

func TestRemoveLineItem_RemovesIndex(t *testing.T) {
	items := []LineItem{item("A", "1", 1), item("B", "2", 1), item("C", "3", 1)}
	got := RemoveLineItem(items, 1)
	if len(got) != 2 || got[0].Description != "A" || got[1].Description != "C" {
		t.Errorf("unexpected result: %+v", got)
	}
	if len(items) != 3 || items[1].Description != "B" {
		t.Error("input slice was mutated")
	}
}

func TestRemoveLineItem_OutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	RemoveLineItem([]LineItem{NewLineItem(), NewLineItem()}, 2)
}

func TestTotalMatchesFactorsAfterEveryMutation(t *testing.T) {
	items := AddLineItem(nil)
	steps := []func([]LineItem) []LineItem{
		func(in []LineItem) []LineItem { return SetLineItemField(in, 0, FieldUnitPrice, "120.25") },
		AddLineItem,
		func(in []LineItem) []LineItem { return SetLineItemField(in, 1, FieldUnitPrice, "80") },
		func(in []LineItem) []LineItem { return SetLineItemField(in, 1, FieldQuantity, "3") },
		AddLineItem,
		func(in []LineItem) []LineItem { return SetLineItemField(in, 2, FieldQuantity, "7") },
		func(in []LineItem) []LineItem { return SetLineItemField(in, 2, FieldUnitPrice, "0.1") },
		func(in []LineItem) []LineItem { return RemoveLineItem(in, 0) },
		func(in []LineItem) []LineItem { return SetLineItemField(in, 0, FieldDescription, "Meds") },
		func(in []LineItem) []LineItem { return RemoveLineItem(in, 1) },
		func(in []LineItem) []LineItem { return RemoveLineItem(in, 0) },
	}
	for i, step := range steps {
		items = step(items)
		if got, want := ComputeTotal(items), sumOfFactors(items); !got.Equal(want) {
			t.Fatalf("step %d: total %s != Σ unitPrice×quantity %s", i, got, want)
		}
	}
	if len(items) != 1 {
		t.Errorf("expected the last item to survive, got %d items", len(items))
	}
}

// -- ComputeTotal / ComputeBalance --

func TestComputeTotal_Empty(t *testing.T) {
	if !ComputeTotal(nil).IsZero() {
		t.Error("expected zero total for empty list")
	}
}

func TestComputeTotal_Idempotent(t *testing.T) {
	items := []LineItem{item("A", "0.1", 3), item("B", "0.2", 1)}
	first, second := ComputeTotal(items), ComputeTotal(items)
	if !first.Equal(second) {
		t.Errorf("expected equal totals, got %s and %s", first, second)
	}
	if !first.Equal(d("0.5")) {
		t.Errorf("expected exact 0.5, got %s", first)
	}
}

func TestComputeBalance(t *testing.T) {
	if got := ComputeBalance(d("500"), d("200")); !got.Equal(d("300")) {
		t.Errorf("expected 300, got %s", got)
	}
	if got := ComputeBalance(d("500"), d("500")); !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
	if got := ComputeBalance(d("100"), d("150")); !got.Equal(d("-50")) {
		t.Errorf("balance is not clamped, expected -50, got %s", got)
	}
}

func TestSummarize_ClampsPaid(t *testing.T) {
	items := []LineItem{item("A", "100", 2)}
	s := Summarize(items, d("250"))
	if !s.Total.Equal(d("200")) || !s.Paid.Equal(d("200")) || !s.Balance.IsZero() {
		t.Errorf("unexpected summary: %+v", s)
	}
	s = Summarize(items, d("-3"))
	if !s.Paid.IsZero() || !s.Balance.Equal(d("200")) {
		t.Errorf("unexpected summary: %+v", s)
	}
}

// -- Payment validation --

func TestValidatePaymentAmount(t *testing.T) {
	tests := []struct {
		entered string
		balance string
		want    string
		wantErr error
	}{
		{"150", "100", "", ErrExceedsBalance},
		{"0", "100", "", ErrInvalidAmount},
		{"100", "100", "100", nil},
		{"-5", "100", "", ErrInvalidAmount},
		{"", "100", "", ErrInvalidAmount},
		{"ten", "100", "", ErrInvalidAmount},
		{" 25.50 ", "100", "25.5", nil},
		{"0.01", "0", "", ErrExceedsBalance},
	}
	for _, tt := range tests {
		t.Run(tt.entered+"/"+tt.balance, func(t *testing.T) {
			got, err := ValidatePaymentAmount(tt.entered, d(tt.balance))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// -- Submission validation --

func TestValidateBillForSubmission_MissingPatient(t *testing.T) {
	cases := [][]LineItem{nil, {item("Consultation", "500", 1)}, {NewLineItem()}}
	for _, items := range cases {
		if err := ValidateBillForSubmission("", items); !errors.Is(err, ErrMissingPatient) {
			t.Errorf("expected ErrMissingPatient, got %v", err)
		}
	}
}

func TestValidateBillForSubmission_FreshItemIsIncomplete(t *testing.T) {
	err := ValidateBillForSubmission("p1", AddLineItem(nil))
	if !errors.Is(err, ErrIncompleteLineItem) {
		t.Errorf("expected ErrIncompleteLineItem, got %v", err)
	}
}

func TestValidateBillForSubmission_ZeroValuedItem(t *testing.T) {
	items := []LineItem{item("Consultation", "500", 1), item("Freebie", "0", 3)}
	if err := ValidateBillForSubmission("p1", items); !errors.Is(err, ErrIncompleteLineItem) {
		t.Errorf("expected ErrIncompleteLineItem, got %v", err)
	}
}

func TestValidateBillForSubmission_OK(t *testing.T) {
	items := []LineItem{item("Consultation", "500", 1), item("Lab", "75.5", 2)}
	if err := ValidateBillForSubmission("p1", items); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// -- Persisted items --

func TestItemFromPersisted_DerivesUnitPrice(t *testing.T) {
	got := ItemFromPersisted(LineItem{ItemID: "ITEM-1", Description: "Meds", Quantity: 4, TotalPrice: d("100")})
	if !got.UnitPrice.Equal(d("25")) {
		t.Errorf("expected unit price 25, got %s", got.UnitPrice)
	}
	if !got.Persisted() {
		t.Error("expected persisted item")
	}
}

func TestItemFromPersisted_UnevenTotalKeepsLineTotal(t *testing.T) {
	got := ItemFromPersisted(LineItem{ItemID: "ITEM-2", Description: "Dressings", Quantity: 3, TotalPrice: d("100")})
	if !LineTotal(got.UnitPrice, got.Quantity).Equal(got.TotalPrice) {
		t.Errorf("expected %s x %d to equal %s", got.UnitPrice, got.Quantity, got.TotalPrice)
	}
	if got.Quantity != 1 || !got.UnitPrice.Equal(d("100")) {
		t.Errorf("expected a single line of 100, got %+v", got)
	}
}

func TestItemFromPersisted_DefaultsQuantity(t *testing.T) {
	got := ItemFromPersisted(LineItem{Description: "Bed", TotalPrice: d("300")})
	if got.Quantity != 1 || !got.UnitPrice.Equal(d("300")) {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestParsePaymentAmount(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-5"} {
		if _, err := ParsePaymentAmount(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParsePaymentAmount(%q): expected ErrInvalidAmount, got %v", in, err)
		}
	}
	got, err := ParsePaymentAmount(" 99.95 ")
	if err != nil || !got.Equal(d("99.95")) {
		t.Errorf("expected 99.95, got %s (%v)", got, err)
	}
}

func TestParse_RejectsExtremeExponents(t *testing.T) {
	inputs := []string{"1e20000000", "1e200000000", "-1e200000000", "1e-200000000", "5e-20", "1234567890123456"}
	for _, in := range inputs {
		if got := ParseAmount(in); !got.IsZero() {
			t.Errorf("ParseAmount(%q) = %s, want 0", in, got)
		}
		if got := ParseQuantity(in); got != 0 {
			t.Errorf("ParseQuantity(%q) = %d, want 0", in, got)
		}
		_, err := ValidatePaymentAmount(in, d("100"))
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ValidatePaymentAmount(%q): expected ErrInvalidAmount, got %v", in, err)
		}
		if err != nil && len(err.Error()) > 200 {
			t.Errorf("ValidatePaymentAmount(%q): error message is %d bytes", in, len(err.Error()))
		}
	}
}

func TestParse_AcceptsSmallExponents(t *testing.T) {
	if got := ParseAmount("1.5e3"); !got.Equal(d("1500")) {
		t.Errorf("expected 1500, got %s", got)
	}
	if got := ParseQuantity("2e1"); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
	items := SetLineItemField([]LineItem{item("Lab", "10", 1)}, 0, FieldUnitPrice, "1e200000000")
	if !items[0].TotalPrice.IsZero() {
		t.Errorf("expected out-of-range price to parse to 0, got %s", items[0].TotalPrice)
	}
}
