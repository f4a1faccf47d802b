package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/healthsync/hms-client/internal/domain/ledger"
)

// DateLayout is the wire format of BillDate.
const DateLayout = "2006-01-02"

// Draft is a bill being created or edited on this client. It has no BillID
// until the server has persisted it.
type Draft struct {
	ID         string            `json:"id"`
	BillID     string            `json:"billId,omitempty"`
	PatientID  string            `json:"patientId"`
	BillDate   string            `json:"billDate"`
	Status     ledger.Status     `json:"status"`
	PaidAmount decimal.Decimal   `json:"paidAmount"`
	Items      []ledger.LineItem `json:"items"`
	// RemovedItemIDs are persisted items dropped from the draft; they are
	// deleted upstream on submit.
	RemovedItemIDs []string  `json:"removedItemIds,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Editing reports whether the draft was loaded from a persisted bill.
func (d *Draft) Editing() bool { return d.BillID != "" }

// Summary returns total, paid and balance with paid clamped to the total.
func (d *Draft) Summary() ledger.Summary {
	return ledger.Summarize(d.Items, d.PaidAmount)
}

func (d *Draft) clone() *Draft {
	c := *d
	c.Items = append([]ledger.LineItem(nil), d.Items...)
	c.RemovedItemIDs = append([]string(nil), d.RemovedItemIDs...)
	return &c
}

// DraftView is the console representation of a draft.
type DraftView struct {
	*Draft
	Summary ledger.Summary `json:"summary"`
}

func viewOf(d *Draft) DraftView {
	return DraftView{Draft: d, Summary: d.Summary()}
}

// DraftUpdate carries the header fields of a draft form. Nil fields are left
// unchanged. PaidAmount is the raw form input.
type DraftUpdate struct {
	PatientID  *string `json:"patientId"`
	BillDate   *string `json:"billDate"`
	Status     *string `json:"status"`
	PaidAmount *string `json:"paidAmount"`
}

// Filter selects bills for listing.
type Filter struct {
	// Status is FilterAll, FilterUnpaid or a bill status.
	Status    string
	PatientID string
}

const (
	FilterAll    = "ALL"
	FilterUnpaid = "UNPAID"
)

// ParseFilter validates a status filter. An empty status means FilterAll.
func ParseFilter(status, patientID string) (Filter, error) {
	switch status {
	case "":
		status = FilterAll
	case FilterAll, FilterUnpaid:
	default:
		if _, err := ledger.ParseStatus(status); err != nil {
			return Filter{}, fmt.Errorf("invalid filter: %s", status)
		}
	}
	return Filter{Status: status, PatientID: patientID}, nil
}

// Match reports whether b passes the status part of the filter.
func (f Filter) Match(b *ledger.Bill) bool {
	switch f.Status {
	case FilterAll, "":
		return true
	case FilterUnpaid:
		return !b.Settled()
	}
	return string(b.Status) == f.Status
}
