package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthsync/hms-client/internal/domain/billing"
	"github.com/healthsync/hms-client/internal/domain/ledger"
	"github.com/healthsync/hms-client/internal/platform/session"
)

func billsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "List, create, pay and delete bills",
	}
	cmd.AddCommand(billsListCmd())
	cmd.AddCommand(billsShowCmd())
	cmd.AddCommand(billsCreateCmd())
	cmd.AddCommand(billsPayCmd())
	cmd.AddCommand(billsDeleteCmd())
	return cmd
}

// withSession builds the app and loads the session before running fn.
func withSession(fn sessionRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		s, err := a.requireSession()
		if err != nil {
			return err
		}
		return fn(cmd, args, a, s)
	}
}

type sessionRunE func(cmd *cobra.Command, args []string, a *app, s *session.Session) error

// errNotReceptionist mirrors the console, where only receptionists may
// change bills.
var errNotReceptionist = errors.New("only receptionists can create, pay or delete bills")

func receptionistOnly(fn sessionRunE) sessionRunE {
	return func(cmd *cobra.Command, args []string, a *app, s *session.Session) error {
		if !s.Is(session.UserTypeReceptionist) {
			return errNotReceptionist
		}
		return fn(cmd, args, a, s)
	}
}

func billsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills",
		RunE: withSession(func(cmd *cobra.Command, args []string, a *app, s *session.Session) error {
			status, _ := cmd.Flags().GetString("filter")
			patientID, _ := cmd.Flags().GetString("patient")
			if s.Is(session.UserTypePatient) {
				patientID = s.User.UserID
			}
			f, err := billing.ParseFilter(strings.ToUpper(status), patientID)
			if err != nil {
				return err
			}
			bills, err := a.billing.ListBills(cmd.Context(), s, f)
			if err != nil {
				return errors.New(billing.UserMessage(err, "Failed to load bills"))
			}
			return printBills(cmd.OutOrStdout(), bills)
		}),
	}
	cmd.Flags().String("filter", billing.FilterAll, "ALL, UNPAID, PENDING, PAID, PARTIAL or CANCELLED")
	cmd.Flags().String("patient", "", "Only bills of this patient id")
	return cmd
}

func billsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <bill-id>",
		Short: "Show a bill with its line items",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, a *app, s *session.Session) error {
			b, err := a.billing.GetBill(cmd.Context(), s, args[0])
			if err != nil {
				return errors.New(billing.UserMessage(err, "Failed to load bill"))
			}
			return printBill(cmd.OutOrStdout(), b)
		}),
	}
}

// itemSpec is one --item flag, "description:unitPrice:quantity". The
// description may itself contain colons.
type itemSpec struct {
	Description string
	UnitPrice   string
	Quantity    string
}

func parseItemSpec(s string) (itemSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return itemSpec{}, fmt.Errorf("item %q: want description:price[:quantity]", s)
	}
	qty := "1"
	if len(parts) >= 3 {
		if _, err := strconv.ParseFloat(parts[len(parts)-1], 64); err == nil {
			qty = parts[len(parts)-1]
			parts = parts[:len(parts)-1]
		}
	}
	price := parts[len(parts)-1]
	desc := strings.TrimSpace(strings.Join(parts[:len(parts)-1], ":"))
	return itemSpec{Description: desc, UnitPrice: price, Quantity: qty}, nil
}

func billsCreateCmd() *cobra.Command {
	var (
		patientID, date, status, paid string
		items                         []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bill",
		Example: `  hms-client bills create --patient PAT-1 \
    --item "Consultation:500:1" --item "Blood test:120:2" --paid 200`,
		RunE: withSession(receptionistOnly(func(cmd *cobra.Command, args []string, a *app, s *session.Session) error {
			specs := make([]itemSpec, 0, len(items))
			for _, raw := range items {
				spec, err := parseItemSpec(raw)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}
			b, err := createBill(cmd.Context(), a, s, draftInput{
				PatientID: patientID, BillDate: date, Status: status, Paid: paid, Items: specs,
			})
			if err != nil {
				return errors.New(billing.UserMessage(err, "Failed to save bill"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created bill %s\n", b.BillID)
			return printBill(cmd.OutOrStdout(), b)
		})),
	}
	f := cmd.Flags()
	f.StringVar(&patientID, "patient", "", "Patient id")
	f.StringVar(&date, "date", "", "Bill date, YYYY-MM-DD (default today)")
	f.StringVar(&status, "status", string(ledger.StatusPending), "PENDING or PAID")
	f.StringVar(&paid, "paid", "0", "Amount already paid")
	f.StringArrayVar(&items, "item", nil, "Line item as description:price[:quantity], repeatable")
	return cmd
}

type draftInput struct {
	PatientID string
	BillDate  string
	Status    string
	Paid      string
	Items     []itemSpec
}

// createBill drives a draft through the same operations the console uses.
func createBill(ctx context.Context, a *app, s *session.Session, in draftInput) (*ledger.Bill, error) {
	d, err := a.billing.NewDraft()
	if err != nil {
		return nil, err
	}
	defer a.billing.DiscardDraft(d.ID)

	status := strings.ToUpper(in.Status)
	upd := billing.DraftUpdate{PatientID: &in.PatientID, Status: &status, PaidAmount: &in.Paid}
	if in.BillDate != "" {
		upd.BillDate = &in.BillDate
	}
	if _, err := a.billing.UpdateDraft(d.ID, upd); err != nil {
		return nil, err
	}
	for i, it := range in.Items {
		if i > 0 {
			if _, err := a.billing.AddItem(d.ID); err != nil {
				return nil, err
			}
		}
		for _, set := range []struct {
			field ledger.Field
			value string
		}{
			{ledger.FieldDescription, it.Description},
			{ledger.FieldUnitPrice, it.UnitPrice},
			{ledger.FieldQuantity, it.Quantity},
		} {
			if _, err := a.billing.SetItemField(d.ID, i, set.field, set.value); err != nil {
				return nil, err
			}
		}
	}
	return a.billing.Submit(ctx, s, d.ID)
}

func billsPayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <bill-id> <amount>",
		Short: "Record a payment against a bill",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(receptionistOnly(func(cmd *cobra.Command, args []string, a *app, s *session.Session) error {
			b, err := a.billing.RecordPayment(cmd.Context(), s, args[0], args[1])
			if err != nil {
				return errors.New(billing.UserMessage(err, "Failed to process payment"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Payment processed successfully")
			return printBill(cmd.OutOrStdout(), b)
		})),
	}
}

func billsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bill-id>",
		Short: "Delete a bill",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(receptionistOnly(func(cmd *cobra.Command, args []string, a *app, s *session.Session) error {
			ack, err := a.billing.DeleteBill(cmd.Context(), s, args[0])
			if err != nil {
				return errors.New(billing.UserMessage(err, "Failed to delete bill"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(ack))
			return nil
		})),
	}
}
