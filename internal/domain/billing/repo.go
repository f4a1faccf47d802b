package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/healthsync/hms-client/internal/domain/ledger"
	"github.com/healthsync/hms-client/internal/platform/apiclient"
	"github.com/healthsync/hms-client/internal/platform/session"
)

// Gateway is the hospital API as seen by the billing service.
// *apiclient.Client implements it.
type Gateway interface {
	ListBills(ctx context.Context, sess *session.Session) ([]ledger.Bill, error)
	ListUnpaidBills(ctx context.Context, sess *session.Session) ([]ledger.Bill, error)
	ListBillsByStatus(ctx context.Context, sess *session.Session, status ledger.Status) ([]ledger.Bill, error)
	ListBillsByPatient(ctx context.Context, sess *session.Session, patientID string) ([]ledger.Bill, error)
	GetBill(ctx context.Context, sess *session.Session, billID string) (*ledger.Bill, error)
	CreateBillWithItems(ctx context.Context, sess *session.Session, bill apiclient.BillFields, items []apiclient.ItemFields) (*ledger.Bill, error)
	UpdateBill(ctx context.Context, sess *session.Session, billID string, bill apiclient.BillFields) (*ledger.Bill, error)
	CreateBillItem(ctx context.Context, sess *session.Session, item apiclient.ItemFields) (*ledger.LineItem, error)
	UpdateBillItem(ctx context.Context, sess *session.Session, itemID string, item apiclient.ItemFields) (*ledger.LineItem, error)
	DeleteBillItem(ctx context.Context, sess *session.Session, itemID string) error
	RecordPayment(ctx context.Context, sess *session.Session, billID string, amount decimal.Decimal) (*ledger.Bill, error)
	DeleteBill(ctx context.Context, sess *session.Session, billID string) (string, error)
}

var _ Gateway = (*apiclient.Client)(nil)

// DraftStore keeps drafts between console requests. Implementations return
// copies; a draft is only changed through Put.
type DraftStore interface {
	Get(id string) (*Draft, error)
	Put(d *Draft) error
	Delete(id string) error
	Len() int
}
