package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/healthsync/hms-client/internal/domain/ledger"
	"github.com/healthsync/hms-client/internal/platform/session"
)

// BillFields is the bill header sent on create and update. Amounts are
// computed by the caller from its draft.
type BillFields struct {
	PatientID   string          `json:"patientId"`
	BillDate    string          `json:"billDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	Status      ledger.Status   `json:"status"`
}

// MarshalJSON sends amounts as JSON numbers, which the API requires.
func (b BillFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PatientID   string        `json:"patientId"`
		BillDate    string        `json:"billDate"`
		TotalAmount json.Number   `json:"totalAmount"`
		PaidAmount  json.Number   `json:"paidAmount"`
		Status      ledger.Status `json:"status"`
	}{b.PatientID, b.BillDate, number(b.TotalAmount), number(b.PaidAmount), b.Status})
}

// ItemFields is the line item payload of the item endpoints.
type ItemFields struct {
	BillID      string          `json:"billId,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

func (it ItemFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		BillID      string      `json:"billId,omitempty"`
		Description string      `json:"description"`
		Quantity    int         `json:"quantity"`
		UnitPrice   json.Number `json:"unitPrice"`
		TotalPrice  json.Number `json:"totalPrice"`
	}{it.BillID, it.Description, it.Quantity, number(it.UnitPrice), number(it.TotalPrice)})
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// ItemFieldsFrom copies the editable fields of a line item.
func ItemFieldsFrom(li ledger.LineItem) ItemFields {
	return ItemFields{
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		TotalPrice:  li.TotalPrice,
	}
}

type createBillRequest struct {
	Bill  BillFields   `json:"bill"`
	Items []ItemFields `json:"items"`
}

func (c *Client) listBills(ctx context.Context, sess *session.Session, path string) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	if err := c.do(ctx, sess, http.MethodGet, path, nil, nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// ListBills is GET /bills.
func (c *Client) ListBills(ctx context.Context, sess *session.Session) ([]ledger.Bill, error) {
	return c.listBills(ctx, sess, "/bills")
}

// ListUnpaidBills is GET /bills/unpaid.
func (c *Client) ListUnpaidBills(ctx context.Context, sess *session.Session) ([]ledger.Bill, error) {
	return c.listBills(ctx, sess, "/bills/unpaid")
}

// ListBillsByStatus is GET /bills/status/{status}.
func (c *Client) ListBillsByStatus(ctx context.Context, sess *session.Session, status ledger.Status) ([]ledger.Bill, error) {
	return c.listBills(ctx, sess, "/bills/status/"+url.PathEscape(string(status)))
}

// ListBillsByPatient is GET /bills/patient/{patientId}.
func (c *Client) ListBillsByPatient(ctx context.Context, sess *session.Session, patientID string) ([]ledger.Bill, error) {
	return c.listBills(ctx, sess, "/bills/patient/"+url.PathEscape(patientID))
}

// GetBill is GET /bills/{billId}.
func (c *Client) GetBill(ctx context.Context, sess *session.Session, billID string) (*ledger.Bill, error) {
	var b ledger.Bill
	if err := c.do(ctx, sess, http.MethodGet, "/bills/"+url.PathEscape(billID), nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBillWithItems is POST /bills/with-items.
func (c *Client) CreateBillWithItems(ctx context.Context, sess *session.Session, bill BillFields, items []ItemFields) (*ledger.Bill, error) {
	var b ledger.Bill
	body := createBillRequest{Bill: bill, Items: items}
	if err := c.do(ctx, sess, http.MethodPost, "/bills/with-items", nil, body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBill is PUT /bills/{billId}.
func (c *Client) UpdateBill(ctx context.Context, sess *session.Session, billID string, bill BillFields) (*ledger.Bill, error) {
	var b ledger.Bill
	if err := c.do(ctx, sess, http.MethodPut, "/bills/"+url.PathEscape(billID), nil, bill, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBillItem is POST /bills/items. item.BillID must be set.
func (c *Client) CreateBillItem(ctx context.Context, sess *session.Session, item ItemFields) (*ledger.LineItem, error) {
	var li ledger.LineItem
	if err := c.do(ctx, sess, http.MethodPost, "/bills/items", nil, item, &li); err != nil {
		return nil, err
	}
	return &li, nil
}

// UpdateBillItem is PUT /bills/items/{itemId}.
func (c *Client) UpdateBillItem(ctx context.Context, sess *session.Session, itemID string, item ItemFields) (*ledger.LineItem, error) {
	var li ledger.LineItem
	if err := c.do(ctx, sess, http.MethodPut, "/bills/items/"+url.PathEscape(itemID), nil, item, &li); err != nil {
		return nil, err
	}
	return &li, nil
}

// DeleteBillItem is DELETE /bills/items/{itemId}.
func (c *Client) DeleteBillItem(ctx context.Context, sess *session.Session, itemID string) error {
	return c.do(ctx, sess, http.MethodDelete, "/bills/items/"+url.PathEscape(itemID), nil, nil, nil)
}

// RecordPayment is POST /bills/{billId}/payment?amount=. The amount is an
// increment; the returned bill carries the server-computed paid and balance
// amounts.
func (c *Client) RecordPayment(ctx context.Context, sess *session.Session, billID string, amount decimal.Decimal) (*ledger.Bill, error) {
	var b ledger.Bill
	q := url.Values{"amount": {amount.String()}}
	if err := c.do(ctx, sess, http.MethodPost, "/bills/"+url.PathEscape(billID)+"/payment", q, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBill is DELETE /bills/{billId}. It returns the server's
// acknowledgement text.
func (c *Client) DeleteBill(ctx context.Context, sess *session.Session, billID string) (string, error) {
	var ack string
	if err := c.do(ctx, sess, http.MethodDelete, "/bills/"+url.PathEscape(billID), nil, nil, &ack); err != nil {
		return "", err
	}
	return ack, nil
}
