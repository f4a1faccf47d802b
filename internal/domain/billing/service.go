package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/healthsync/hms-client/internal/domain/ledger"
	"github.com/healthsync/hms-client/internal/platform/apiclient"
	"github.com/healthsync/hms-client/internal/platform/session"
)

var (
	ErrDraftNotFound   = errors.New("draft not found")
	ErrRequestInFlight = errors.New("a request for this bill is already in progress")
	ErrItemOutOfRange  = errors.New("line item index out of range")
	ErrInvalidDate     = errors.New("bill date must be YYYY-MM-DD")
	ErrInvalidStatus   = errors.New("status must be PENDING or PAID")
)

type Service struct {
	gw       Gateway
	drafts   DraftStore
	// draftMu makes draft edits atomic with the read and the delete done by
	// Submit.
	draftMu  sync.Mutex
	inflight *inflight
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(gw Gateway, drafts DraftStore) *Service {
	return &Service{
		gw:       gw,
		drafts:   drafts,
		inflight: newInflight(),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
}

// SetLogger attaches a logger for mutation outcomes.
func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// -- Drafts --

// NewDraft starts a bill dated today with one blank line item.
func (s *Service) NewDraft() (*Draft, error) {
	d := &Draft{
		ID:         uuid.NewString(),
		BillDate:   s.now().Format(DateLayout),
		Status:     ledger.StatusPending,
		PaidAmount: decimal.Zero,
		Items:      ledger.AddLineItem(nil),
		UpdatedAt:  s.now(),
	}
	if err := s.drafts.Put(d); err != nil {
		return nil, err
	}
	return d, nil
}

// EditBill loads a persisted bill into a new draft.
func (s *Service) EditBill(ctx context.Context, sess *session.Session, billID string) (*Draft, error) {
	b, err := s.gw.GetBill(ctx, sess, billID)
	if err != nil {
		return nil, fmt.Errorf("load bill %s: %w", billID, err)
	}
	items := make([]ledger.LineItem, 0, len(b.BillItems))
	for _, it := range b.BillItems {
		items = append(items, ledger.ItemFromPersisted(it))
	}
	if len(items) == 0 {
		items = ledger.AddLineItem(nil)
	}
	d := &Draft{
		ID:         uuid.NewString(),
		BillID:     b.BillID,
		PatientID:  b.PatientID,
		BillDate:   b.BillDate,
		Status:     b.Status,
		PaidAmount: b.PaidAmount,
		Items:      items,
		UpdatedAt:  s.now(),
	}
	if err := s.drafts.Put(d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDraft(id string) (*Draft, error) {
	return s.drafts.Get(id)
}

// DiscardDraft drops a draft without touching the server.
func (s *Service) DiscardDraft(id string) error {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	if s.inflight.busy(submitKey(id)) {
		return ErrRequestInFlight
	}
	return s.drafts.Delete(id)
}

// mutate applies fn to a copy of the draft and stores the result only when
// fn succeeds.
func (s *Service) mutate(id string, fn func(d *Draft) error) (*Draft, error) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	if s.inflight.busy(submitKey(id)) {
		return nil, ErrRequestInFlight
	}
	d, err := s.drafts.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now()
	if err := s.drafts.Put(d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateDraft(id string, upd DraftUpdate) (*Draft, error) {
	return s.mutate(id, func(d *Draft) error {
		if upd.BillDate != nil {
			if _, err := time.Parse(DateLayout, *upd.BillDate); err != nil {
				return ErrInvalidDate
			}
		}
		if upd.Status != nil {
			st, err := ledger.ParseStatus(*upd.Status)
			if err != nil || !st.Producible() {
				return ErrInvalidStatus
			}
			d.Status = st
		}
		if upd.PatientID != nil {
			d.PatientID = strings.TrimSpace(*upd.PatientID)
		}
		if upd.BillDate != nil {
			d.BillDate = *upd.BillDate
		}
		if upd.PaidAmount != nil {
			d.PaidAmount = ledger.ParseAmount(*upd.PaidAmount)
		}
		return nil
	})
}

func (s *Service) AddItem(id string) (*Draft, error) {
	return s.mutate(id, func(d *Draft) error {
		d.Items = ledger.AddLineItem(d.Items)
		return nil
	})
}

func (s *Service) SetItemField(id string, index int, field ledger.Field, value string) (*Draft, error) {
	return s.mutate(id, func(d *Draft) error {
		if !ledger.InRange(d.Items, index) {
			return ErrItemOutOfRange
		}
		d.Items = ledger.SetLineItemField(d.Items, index, field, value)
		return nil
	})
}

// RemoveItem drops an item. The last remaining item is kept.
func (s *Service) RemoveItem(id string, index int) (*Draft, error) {
	return s.mutate(id, func(d *Draft) error {
		if !ledger.InRange(d.Items, index) {
			return ErrItemOutOfRange
		}
		if len(d.Items) == 1 {
			return nil
		}
		if it := d.Items[index]; it.Persisted() {
			d.RemovedItemIDs = append(d.RemovedItemIDs, it.ItemID)
		}
		d.Items = ledger.RemoveLineItem(d.Items, index)
		return nil
	})
}

// Submit validates the draft and persists it. On success the draft is
// discarded and the refetched bill returned; on any failure the draft is
// left as it was.
func (s *Service) Submit(ctx context.Context, sess *session.Session, id string) (*ledger.Bill, error) {
	s.draftMu.Lock()
	release, err := s.inflight.acquire(submitKey(id))
	if err != nil {
		s.draftMu.Unlock()
		return nil, err
	}
	defer release()
	d, err := s.drafts.Get(id)
	s.draftMu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := ledger.ValidateBillForSubmission(d.PatientID, d.Items); err != nil {
		return nil, err
	}
	if _, err := time.Parse(DateLayout, d.BillDate); err != nil {
		return nil, ErrInvalidDate
	}

	sum := d.Summary()
	fields := apiclient.BillFields{
		PatientID:   d.PatientID,
		BillDate:    d.BillDate,
		TotalAmount: sum.Total,
		PaidAmount:  sum.Paid,
		Status:      d.Status,
	}

	var saved *ledger.Bill
	if d.Editing() {
		saved, err = s.update(ctx, sess, d, fields)
	} else {
		saved, err = s.create(ctx, sess, d, fields)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("draft_id", d.ID).Str("bill_id", d.BillID).Msg("bill submission failed")
		return nil, err
	}

	bill, err := s.gw.GetBill(ctx, sess, saved.BillID)
	if err != nil {
		s.logger.Warn().Err(err).Str("bill_id", saved.BillID).Msg("refetch after submit failed")
		bill = saved
	}
	s.draftMu.Lock()
	err = s.drafts.Delete(id)
	s.draftMu.Unlock()
	if err != nil && !errors.Is(err, ErrDraftNotFound) {
		return nil, err
	}
	s.logger.Info().
		Str("bill_id", bill.BillID).
		Str("patient_id", bill.PatientID).
		Str("total", bill.TotalAmount.String()).
		Bool("edit", d.Editing()).
		Msg("bill saved")
	return bill, nil
}

func (s *Service) create(ctx context.Context, sess *session.Session, d *Draft, fields apiclient.BillFields) (*ledger.Bill, error) {
	items := make([]apiclient.ItemFields, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, apiclient.ItemFieldsFrom(it))
	}
	b, err := s.gw.CreateBillWithItems(ctx, sess, fields, items)
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	return b, nil
}

func (s *Service) update(ctx context.Context, sess *session.Session, d *Draft, fields apiclient.BillFields) (*ledger.Bill, error) {
	b, err := s.gw.UpdateBill(ctx, sess, d.BillID, fields)
	if err != nil {
		return nil, fmt.Errorf("update bill %s: %w", d.BillID, err)
	}
	for _, it := range d.Items {
		item := apiclient.ItemFieldsFrom(it)
		if it.Persisted() {
			if _, err := s.gw.UpdateBillItem(ctx, sess, it.ItemID, item); err != nil {
				return nil, fmt.Errorf("update item %s: %w", it.ItemID, err)
			}
			continue
		}
		item.BillID = d.BillID
		if _, err := s.gw.CreateBillItem(ctx, sess, item); err != nil {
			return nil, fmt.Errorf("add item to bill %s: %w", d.BillID, err)
		}
	}
	for _, itemID := range d.RemovedItemIDs {
		if err := s.gw.DeleteBillItem(ctx, sess, itemID); err != nil && !apiclient.IsNotFound(err) {
			return nil, fmt.Errorf("delete item %s: %w", itemID, err)
		}
	}
	if b.BillID == "" {
		b.BillID = d.BillID
	}
	return b, nil
}

// -- Bills --

// ListBills routes a filter to the narrowest endpoint. Patient lists are
// fetched by patient and filtered here.
func (s *Service) ListBills(ctx context.Context, sess *session.Session, f Filter) ([]ledger.Bill, error) {
	var (
		bills []ledger.Bill
		err   error
	)
	switch {
	case f.PatientID != "":
		bills, err = s.gw.ListBillsByPatient(ctx, sess, f.PatientID)
		if err == nil {
			bills = filterBills(bills, f)
		}
	case f.Status == FilterAll || f.Status == "":
		bills, err = s.gw.ListBills(ctx, sess)
	case f.Status == FilterUnpaid:
		bills, err = s.gw.ListUnpaidBills(ctx, sess)
	default:
		bills, err = s.gw.ListBillsByStatus(ctx, sess, ledger.Status(f.Status))
	}
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

func filterBills(bills []ledger.Bill, f Filter) []ledger.Bill {
	out := bills[:0]
	for i := range bills {
		if f.Match(&bills[i]) {
			out = append(out, bills[i])
		}
	}
	return out
}

func (s *Service) GetBill(ctx context.Context, sess *session.Session, billID string) (*ledger.Bill, error) {
	return s.gw.GetBill(ctx, sess, billID)
}

// RecordPayment validates entered against the bill's current balance and
// posts it as an increment. The returned bill is refetched from the server.
func (s *Service) RecordPayment(ctx context.Context, sess *session.Session, billID, entered string) (*ledger.Bill, error) {
	amount, err := ledger.ParsePaymentAmount(entered)
	if err != nil {
		return nil, err
	}
	release, err := s.inflight.acquire(paymentKey(billID))
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.gw.GetBill(ctx, sess, billID)
	if err != nil {
		return nil, fmt.Errorf("load bill %s: %w", billID, err)
	}
	if _, err := ledger.ValidatePayment(amount, current.BalanceAmount); err != nil {
		return nil, err
	}
	paid, err := s.gw.RecordPayment(ctx, sess, billID, amount)
	if err != nil {
		return nil, fmt.Errorf("record payment on %s: %w", billID, err)
	}
	s.logger.Info().Str("bill_id", billID).Str("amount", amount.String()).Msg("payment recorded")

	bill, err := s.gw.GetBill(ctx, sess, billID)
	if err != nil {
		s.logger.Warn().Err(err).Str("bill_id", billID).Msg("refetch after payment failed")
		return paid, nil
	}
	return bill, nil
}

// DeleteBill removes a bill and returns the server's acknowledgement.
func (s *Service) DeleteBill(ctx context.Context, sess *session.Session, billID string) (string, error) {
	release, err := s.inflight.acquire(deleteKey(billID))
	if err != nil {
		return "", err
	}
	defer release()

	ack, err := s.gw.DeleteBill(ctx, sess, billID)
	if err != nil {
		return "", fmt.Errorf("delete bill %s: %w", billID, err)
	}
	s.logger.Info().Str("bill_id", billID).Msg("bill deleted")
	return ack, nil
}

// OutstandingTotal sums the balance of bills.
func OutstandingTotal(bills []ledger.Bill) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.BalanceAmount)
	}
	return total
}

func submitKey(draftID string) string { return "submit:" + draftID }
func paymentKey(billID string) string { return "payment:" + billID }
func deleteKey(billID string) string  { return "delete:" + billID }

// UserMessage turns err into the message shown next to the form. Upstream
// rejections are shown verbatim when the server explained them; anything
// else falls back to fallback.
func UserMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ledger.ErrMissingPatient):
		return "Please select a patient"
	case errors.Is(err, ledger.ErrIncompleteLineItem):
		return "Please fill in all bill items"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "Please enter a valid payment amount"
	case errors.Is(err, ledger.ErrExceedsBalance):
		return "Payment amount cannot exceed the balance"
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidStatus):
		return strings.ToUpper(err.Error()[:1]) + err.Error()[1:]
	case errors.Is(err, ErrRequestInFlight):
		return "Please wait for the current request to finish"
	}
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}
