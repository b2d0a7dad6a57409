package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/riconcilia/riconcilia/internal/decisions"
	"github.com/riconcilia/riconcilia/internal/matching"
	"github.com/riconcilia/riconcilia/internal/session"
)

func newSessionCommand(e *env) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Saved reconciliation sessions",
	}
	sessionCmd.AddCommand(newSessionShowCommand(e))
	return sessionCmd
}

func newSessionShowCommand(e *env) *cobra.Command {
	var dir string
	var decisionsLog string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the latest saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := session.NewFileStore(dir, e.logger).LoadLatest()
			if err != nil {
				return err
			}
			if p == nil {
				return errors.New("no saved session in " + dir)
			}

			tbl := decisions.NewTable(nil)
			for sid, d := range p.Snapshot.Decisions {
				tbl.Set(decisions.Entry{SuggestionID: sid, Decision: d})
			}
			if decisionsLog != "" {
				entries, err := decisions.Read(decisionsLog)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					tbl.Set(entry)
				}
			}

			printSession(cmd.OutOrStdout(), p, tbl)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "sessions", "session directory")
	cmd.Flags().StringVar(&decisionsLog, "decisions", "", "decision log CSV with newer decisions")

	return cmd
}

func printSession(w io.Writer, p *session.Payload, tbl *decisions.Table) {
	snap := p.Snapshot
	fmt.Fprintf(w, "Session %s (v%d, %s storage) saved %s\n", p.SessionID, p.Version, p.Storage, p.SavedAt.Format("2006-01-02 15:04:05 MST"))
	if snap.Statement != nil {
		fmt.Fprintf(w, "Statement: %s (%d rows)\n", snap.Statement.FileName, snap.Statement.TotalRows)
	}
	fmt.Fprintf(w, "Movements: %d\n", len(snap.Movements))
	fmt.Fprintf(w, "Invoices: %d\n", len(snap.Invoices))
	if snap.Match == nil {
		return
	}

	printMatch(w, *snap.Match, tbl)

	if errs := matching.Validate(*snap.Match, snap.Invoices, snap.Movements); len(errs) > 0 {
		fmt.Fprintf(w, "Integrity problems (%d):\n", len(errs))
		for _, err := range errs {
			fmt.Fprintf(w, "  %s\n", err.Error())
		}
	}

	ids := make([]string, len(snap.Match.Suggestions))
	for i, s := range snap.Match.Suggestions {
		ids[i] = s.ID
	}
	counts := tbl.Counts(ids)
	fmt.Fprintf(w, "Decisions: %d confirmed, %d rejected, %d pending\n",
		counts[decisions.Confirmed], counts[decisions.Rejected], counts[decisions.Pending])
}
