package cli

import (
	"fmt"
	"strings"

	"github.com/openledgerhq/orders-to-cash/internal/application/reconcile"
	"github.com/openledgerhq/orders-to-cash/internal/domain/report"
)

// PrintHeader prints the application header
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("orders-to-cash reconcile (%s mode)\n\n", mode)
}

// PrintSummary prints the reconciliation result summary
func PrintSummary(result *reconcile.Result) {
	sum := result.Report.Summary

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Run: %s (%d orders, %d transactions, %dms)\n",
		result.RunID, result.OrderCount, result.TransactionCount, result.Duration.Milliseconds())
	fmt.Println()

	printCategory("Matched", sum.Matched)
	printCategory("Amount mismatch", sum.Mismatch)
	printCategory("Missing in statement", sum.Missing)
	printCategory("Accrual (post-statement)", sum.Accrual)
	printCategory("Duplicate reference", sum.Duplicate)
	printCategory("Orphan transactions", sum.Orphan)

	if len(sum.Variances) > 0 {
		fmt.Println("\nVariances:")
		for _, v := range sum.Variances {
			fmt.Printf("  - %s: expected %s, observed %s (variance %s)\n",
				v.OrderID, v.Expected.StringFixed(2), v.Observed.StringFixed(2), v.Variance.StringFixed(2))
		}
	}

	fmt.Println()
	fmt.Printf("Warehouse gross:  %s\n", sum.WarehouseGross.StringFixed(2))
	fmt.Printf("Reconciled total: %s\n", sum.ReconciledTotal.StringFixed(2))
	if sum.Balanced {
		fmt.Println("Balance check:    OK")
	} else {
		fmt.Println("Balance check:    FAILED")
		if sum.Imbalance != nil {
			fmt.Printf("  gap=%s mismatch=%s duplicates=%s orphans=%s\n",
				sum.Imbalance.Gap.StringFixed(2),
				sum.Imbalance.MismatchVariance.StringFixed(2),
				sum.Imbalance.DuplicateTotal.StringFixed(2),
				sum.Imbalance.OrphanTotal.StringFixed(2))
		}
	}
}

func printCategory(label string, total report.CategoryTotal) {
	fmt.Printf("%-26s %4d  %12s\n", label, total.Count, total.Total.StringFixed(2))
}
