package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/riconcilia/riconcilia/internal/decisions"
	"github.com/riconcilia/riconcilia/internal/fattura"
	"github.com/riconcilia/riconcilia/internal/matching"
	"github.com/riconcilia/riconcilia/internal/model"
	"github.com/riconcilia/riconcilia/internal/report"
	"github.com/riconcilia/riconcilia/internal/session"
)

type matchFlags struct {
	statement    string
	issued       []string
	received     []string
	mapping      mappingFlags
	reportPath   string
	sessionDir   string
	decisionsLog string
	asJSON       bool

	amountTolerance string
	maxDateDistance int
	minScore        int
	autoScore       int
}

func newMatchCommand(e *env) *cobra.Command {
	var f matchFlags

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match invoices to statement movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, e, &f)
		},
	}

	cmd.Flags().StringVar(&f.statement, "statement", "", "bank statement file (required)")
	_ = cmd.MarkFlagRequired("statement")
	cmd.Flags().StringArrayVar(&f.issued, "emesse", nil, "issued invoices: a directory or .xml files (repeatable)")
	cmd.Flags().StringArrayVar(&f.received, "ricevute", nil, "received invoices: a directory or .xml files (repeatable)")
	f.mapping.register(cmd)
	cmd.Flags().StringVar(&f.reportPath, "report", "", "write a CSV report to this path")
	cmd.Flags().StringVar(&f.sessionDir, "save-session", "", "save a session snapshot in this directory")
	cmd.Flags().StringVar(&f.decisionsLog, "decisions", "", "decision log CSV to annotate suggestions with")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the match result as JSON")
	cmd.Flags().StringVar(&f.amountTolerance, "amount-tolerance", "", "override matching.amount_tolerance")
	cmd.Flags().IntVar(&f.maxDateDistance, "max-date-distance", 0, "override matching.max_date_distance_days")
	cmd.Flags().IntVar(&f.minScore, "min-score", 0, "override matching.min_score")
	cmd.Flags().IntVar(&f.autoScore, "auto-score", 0, "override matching.auto_score")

	return cmd
}

func runMatch(cmd *cobra.Command, e *env, f *matchFlags) error {
	if len(f.issued) == 0 && len(f.received) == 0 {
		return errors.New("at least one of --emesse or --ricevute is required")
	}

	opts, err := e.matchOptions(cmd, f)
	if err != nil {
		return err
	}

	ls, err := e.loadStatement(f.statement, &f.mapping)
	if err != nil {
		return err
	}

	imports := make(map[string]fattura.ImportStats)
	var invoices []model.Invoice
	out := cmd.OutOrStdout()
	for _, batch := range []struct {
		t     model.InvoiceType
		paths []string
	}{
		{model.InvoiceIssued, f.issued},
		{model.InvoiceReceived, f.received},
	} {
		if len(batch.paths) == 0 {
			continue
		}
		res, err := e.importInvoices(batch.paths, batch.t)
		if errors.Is(err, model.ErrNoInvoiceFiles) {
			e.logger.Warn("no invoice files", "type", string(batch.t), "paths", strings.Join(batch.paths, ","))
			continue
		}
		if err != nil {
			return err
		}
		imports[string(batch.t)] = res.Stats
		invoices = append(invoices, res.Invoices...)
		if !f.asJSON {
			printInvoiceImport(out, batch.t, res)
		}
	}

	result := matching.Match(invoices, ls.result.Movements, opts)
	e.logger.Info("matching done",
		"matched", result.Stats.Matched,
		"auto", result.Stats.Auto,
		"review", result.Stats.Review,
		"weak", result.Stats.Weak,
	)

	tbl := decisions.NewTable(nil)
	if f.decisionsLog != "" {
		if tbl, err = decisions.Load(f.decisionsLog); err != nil {
			return err
		}
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		fmt.Fprintf(out, "Statement %s: %d movements (%d errors, %d duplicates)\n",
			ls.statement.FileName, ls.result.Stats.ImportedRows, ls.result.Stats.ErrorRows, ls.result.Stats.DuplicateRows)
		printMatch(out, result, tbl)
	}

	if f.reportPath != "" {
		if err := writeReport(f.reportPath, result, tbl); err != nil {
			return err
		}
		e.logger.Info("report written", "path", f.reportPath)
	}

	if f.sessionDir != "" {
		snap := session.Snapshot{
			Statement:      session.NewStatementInfo(ls.statement, e.cfg.Import.PreviewRows),
			Mapping:        ls.mapping,
			Movements:      ls.result.Movements,
			MovementStats:  ls.result.Stats,
			Invoices:       invoices,
			InvoiceImports: imports,
			Options:        opts,
			Match:          &result,
			Decisions:      tbl.Snapshot(),
		}
		p, err := session.NewFileStore(f.sessionDir, e.logger).Save(snap)
		if err != nil {
			return err
		}
		if !f.asJSON {
			fmt.Fprintf(out, "Session %s saved\n", p.SessionID)
		}
	}

	return nil
}

// matchOptions starts from the config and applies the flags the user set.
func (e *env) matchOptions(cmd *cobra.Command, f *matchFlags) (matching.Options, error) {
	mc := e.cfg.Matching
	flags := cmd.Flags()
	if flags.Changed("amount-tolerance") {
		tol, err := decimal.NewFromString(f.amountTolerance)
		if err != nil {
			return matching.Options{}, fmt.Errorf("invalid --amount-tolerance %q: %w", f.amountTolerance, err)
		}
		mc.AmountTolerance = tol
	}
	if flags.Changed("max-date-distance") {
		mc.MaxDateDistanceDays = f.maxDateDistance
	}
	if flags.Changed("min-score") {
		mc.MinScore = f.minScore
	}
	if flags.Changed("auto-score") {
		mc.AutoScore = f.autoScore
	}

	check := *e.cfg
	check.Matching = mc
	if err := check.Validate(); err != nil {
		return matching.Options{}, err
	}
	return mc.Options(), nil
}

func writeReport(path string, result matching.Result, tbl *decisions.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.Write(f, result, tbl); err != nil {
		f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

func printMatch(w io.Writer, res matching.Result, tbl *decisions.Table) {
	fmt.Fprintf(w, "Suggestions (%d):\n", len(res.Suggestions))
	for _, s := range res.Suggestions {
		fmt.Fprintf(w, "  %-6s %3d  %-16s -> %-8s %12s  [%s]\n",
			s.Type, s.Score, s.Invoice.Number, s.Movement.ID, s.Movement.Amount.StringFixed(2), tbl.Get(s.ID))
		fmt.Fprintf(w, "         id: %s\n", s.ID)
		fmt.Fprintf(w, "         %s\n", strings.Join(s.Reasons, "; "))
	}

	if len(res.UnmatchedInvoices) > 0 {
		fmt.Fprintf(w, "Unmatched invoices (%d):\n", len(res.UnmatchedInvoices))
		printInvoices(w, res.UnmatchedInvoices)
	}
	if len(res.UnmatchedMovements) > 0 {
		fmt.Fprintf(w, "Unmatched movements (%d):\n", len(res.UnmatchedMovements))
		printMovements(w, res.UnmatchedMovements)
	}

	s := res.Stats
	fmt.Fprintf(w, "Summary: %d invoices, %d movements, matched %d (auto %d, review %d, weak %d), unmatched invoices %d, unmatched movements %d\n",
		s.TotalInvoices, s.TotalMovements, s.Matched, s.Auto, s.Review, s.Weak, s.UnmatchedInvoices, s.UnmatchedMovements)
}
