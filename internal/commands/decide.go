package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riconcilia/riconcilia/internal/decisions"
	"github.com/riconcilia/riconcilia/internal/id"
)

const defaultDecisionLog = "decisions.csv"

func newDecideCommand(e *env) *cobra.Command {
	var logPath string
	var note string

	cmd := &cobra.Command{
		Use:   "decide <suggestion-id> <pending|confirmed|rejected>",
		Short: "Record a decision on a match suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := id.SplitSuggestionID(args[0]); err != nil {
				return err
			}
			d, err := decisions.ParseDecision(args[1])
			if err != nil {
				return err
			}

			entry := decisions.Entry{
				Timestamp:    time.Now().UTC(),
				SuggestionID: args[0],
				Decision:     d,
				Note:         note,
			}
			if err := decisions.Append(logPath, []decisions.Entry{entry}); err != nil {
				return err
			}
			e.logger.Debug("decision recorded", "suggestion", args[0], "decision", string(d), "log", logPath)

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", d, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", defaultDecisionLog, "decision log CSV")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")

	return cmd
}
