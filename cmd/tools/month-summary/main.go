// cmd/tools/month-summary/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"collections-dashboard/internal/apiclient"
	apperrors "collections-dashboard/internal/common/errors"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
)

func main() {
	summaryCmd := flag.NewFlagSet("summary", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	// Shared flags
	apiURL := os.Getenv("COLLECTIONS_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	summaryAPI := summaryCmd.String("api", apiURL, "Collections API base URL")
	listAPI := listCmd.String("api", apiURL, "Collections API base URL")
	summaryMonth := summaryCmd.String("month", filters.CurrentEmiMonth(time.Now()), "EMI month (Mon-YY)")
	listMonth := listCmd.String("month", filters.CurrentEmiMonth(time.Now()), "EMI month (Mon-YY)")
	asJSON := summaryCmd.Bool("json", false, "Print the raw JSON summary")

	// List command flags
	limit := listCmd.Int("limit", 20, "Rows to print")
	offset := listCmd.Int("offset", 0, "Rows to skip")
	branch := listCmd.String("branch", "", "Only this branch")
	status := listCmd.String("status", "", "Only this field status")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "summary":
		summaryCmd.Parse(os.Args[2:])
		out, err := apiclient.New(*summaryAPI, 30*time.Second).Summary(ctx, *summaryMonth)
		if err != nil {
			fail(err)
		}
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(out)
			return
		}
		printSummary(*summaryMonth, out)

	case "list":
		listCmd.Parse(os.Args[2:])
		state := filters.State{}
		if *branch != "" {
			state[filters.DimBranch] = []string{*branch}
		}
		if *status != "" {
			state[filters.DimStatus] = []string{*status}
		}
		out, err := apiclient.New(*listAPI, 30*time.Second).ListApplications(ctx, apiclient.ListParams{
			EmiMonth: *listMonth,
			Offset:   *offset,
			Limit:    *limit,
			Filters:  state,
		})
		if err != nil {
			fail(err)
		}
		printRows(out)

	default:
		help()
		os.Exit(1)
	}
}

func printSummary(month string, s *models.CollectionSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "EMI month\t%s\n", month)
	fmt.Fprintf(w, "Total\t%d\n", s.Total)
	fmt.Fprintf(w, "%s\t%d\n", models.StatusPaid, s.Paid)
	fmt.Fprintf(w, "%s\t%d\n", models.StatusUnpaid, s.Unpaid)
	fmt.Fprintf(w, "%s\t%d\n", models.StatusPartiallyPaid, s.PartiallyPaid)
	fmt.Fprintf(w, "%s\t%d\n", models.StatusCashCollected, s.CashCollected)
	fmt.Fprintf(w, "%s\t%d\n", models.StatusCustomerDeposited, s.CustomerDeposited)
	fmt.Fprintf(w, "%s\t%d\n", models.StatusPaidPendingApproval, s.PaidPendingApproval)
	fmt.Fprintf(w, "Foreclose\t%d\n", s.Foreclose)
	w.Flush()
}

func printRows(out *apiclient.ListResponse) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAPPLICANT\tBRANCH\tRM\tSTATUS\tEMI\tPTP")
	for _, row := range out.Results {
		ptp := "-"
		if row.PtpDate != nil {
			ptp = *row.PtpDate
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ApplicationID, row.ApplicantName, row.Branch, row.RMName, row.Status, row.EMIAmount, ptp)
	}
	w.Flush()
	fmt.Printf("\n%d of %d applications (%d active filters)\n", len(out.Results), out.Total, out.ActiveFilters)
}

func fail(err error) {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		fmt.Fprintf(os.Stderr, "Error: %s (%s)\n", stdErr.Message, stdErr.Code)
		if stdErr.Details != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", stdErr.Details)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func help() {
	fmt.Println("Usage: month-summary <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  summary   Print the per-status counts for an EMI month")
	fmt.Println("  list      Print one page of the month's applications")
	fmt.Println("\nExamples:")
	fmt.Println("  month-summary summary -month Jul-25")
	fmt.Println("  month-summary list -month Jul-25 -branch Pune -limit 50")
}
