package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/healthsync/hms-client/internal/domain/billing"
	"github.com/healthsync/hms-client/internal/domain/ledger"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func printBills(w io.Writer, bills []ledger.Bill) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BILL\tPATIENT\tDATE\tSTATUS\tTOTAL\tPAID\tBALANCE")
	for _, b := range bills {
		patient := b.PatientID
		if b.PatientName != "" {
			patient = b.PatientName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.BillID, patient, b.BillDate, b.Status,
			money(b.TotalAmount), money(b.PaidAmount), money(b.BalanceAmount))
	}
	fmt.Fprintf(tw, "\t\t\t\t\tOUTSTANDING\t%s\n", money(billing.OutstandingTotal(bills)))
	return tw.Flush()
}

func printBill(w io.Writer, b *ledger.Bill) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Bill %s for %s on %s (%s)\n", b.BillID, b.PatientID, b.BillDate, b.Status)
	fmt.Fprintln(tw, "ITEM\tDESCRIPTION\tUNIT\tQTY\tTOTAL")
	for _, it := range b.BillItems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			it.ItemID, it.Description, money(it.UnitPrice), it.Quantity, money(it.TotalPrice))
	}
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", money(b.TotalAmount))
	fmt.Fprintf(tw, "\t\t\tPaid\t%s\n", money(b.PaidAmount))
	fmt.Fprintf(tw, "\t\t\tBalance\t%s\n", money(b.BalanceAmount))
	return tw.Flush()
}
