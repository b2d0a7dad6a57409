package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/riconcilia/riconcilia/internal/fattura"
	"github.com/riconcilia/riconcilia/internal/model"
)

// importInvoices imports any mix of invoice directories and files.
func (e *env) importInvoices(paths []string, t model.InvoiceType) (*fattura.ImportResult, error) {
	return fattura.NewImporter(e.logger).ImportSources(paths, t)
}

func newInvoicesCommand(e *env) *cobra.Command {
	var typ string
	var list bool

	cmd := &cobra.Command{
		Use:   "invoices <dir|files...>",
		Short: "Import FatturaPA invoices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseInvoiceType(typ)
			if err != nil {
				return err
			}
			res, err := e.importInvoices(args, t)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printInvoiceImport(out, t, res)
			if list {
				printInvoices(out, res.Invoices)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(model.InvoiceIssued), "invoice type: emessa or ricevuta")
	cmd.Flags().BoolVar(&list, "list", false, "list the imported invoices")

	return cmd
}

func printInvoiceImport(w io.Writer, t model.InvoiceType, res *fattura.ImportResult) {
	s := res.Stats
	fmt.Fprintf(w, "Invoices (%s): %d imported, %d errors, %d duplicates (of %d files)\n",
		t, s.ImportedFiles, s.ErrorFiles, s.DuplicateFiles, s.TotalFiles)
	printFileIssues(w, "Errors", res.Errors)
	printFileIssues(w, "Duplicates", res.Duplicates)
}

func printFileIssues(w io.Writer, title string, issues []fattura.FileIssue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, issue := range issues {
		fmt.Fprintf(w, "  %s\n", issue.Error())
	}
}

func printInvoices(w io.Writer, invoices []model.Invoice) {
	for _, inv := range invoices {
		cbi := inv.CBICausale
		if cbi == "" {
			cbi = "-"
		}
		fmt.Fprintf(w, "  %-16s due %s %12s cbi=%-6s %s\n",
			inv.Number, inv.TargetDate().Format(model.DateFormat), inv.AmountDue.StringFixed(2), cbi, inv.CounterpartyName)
	}
}
