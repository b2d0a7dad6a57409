package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/riconcilia/riconcilia/internal/importer"
	"github.com/riconcilia/riconcilia/internal/model"
)

// mappingFlags lets the user override the suggested column mapping.
type mappingFlags struct {
	set   []string
	unset []string
	file  string
}

func (f *mappingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.set, "map", nil, "map a field to a header, e.g. --map amount=Importo (repeatable)")
	cmd.Flags().StringArrayVar(&f.unset, "unmap", nil, "clear a field from the mapping (repeatable)")
	cmd.Flags().StringVar(&f.file, "mapping", "", "YAML file of field: header|null overrides")
}

// apply layers the mapping file, then --map, then --unmap over m.
func (f *mappingFlags) apply(m *model.FieldMapping) error {
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return fmt.Errorf("reading mapping file: %w", err)
		}
		var raw map[string]*string
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing mapping file: %w", err)
		}
		if err := m.Apply(raw); err != nil {
			return fmt.Errorf("mapping file %s: %w", f.file, err)
		}
	}
	for _, pair := range f.set {
		key, header, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(header) == "" {
			return fmt.Errorf("invalid --map %q (want field=Header)", pair)
		}
		field, err := model.ParseField(key)
		if err != nil {
			return err
		}
		m.Set(field, strings.TrimSpace(header))
	}
	for _, key := range f.unset {
		field, err := model.ParseField(key)
		if err != nil {
			return err
		}
		m.Clear(field)
	}
	return nil
}

type loadedStatement struct {
	statement *importer.Statement
	mapping   model.FieldMapping
	result    importer.NormalizeResult
}

// loadStatement imports path, applies mapping overrides and normalizes.
func (e *env) loadStatement(path string, mf *mappingFlags) (*loadedStatement, error) {
	fallback, err := e.cfg.Import.Fallback()
	if err != nil {
		return nil, err
	}
	st, err := importer.ImportStatementFile(importer.RegistryWithFallback(fallback), path)
	if err != nil {
		return nil, err
	}

	mapping := st.SuggestedMapping
	if err := mf.apply(&mapping); err != nil {
		return nil, err
	}

	res := importer.Normalize(st.Table, mapping)
	for _, issue := range res.Errors {
		e.logger.Debug("row rejected", "file", st.FileName, "row", issue.Row, "reason", issue.Reason)
	}
	for _, issue := range res.Duplicates {
		e.logger.Debug("row skipped", "file", st.FileName, "row", issue.Row, "reason", issue.Reason)
	}
	e.logger.Info("statement imported",
		"file", st.FileName,
		"rows", res.Stats.TotalRows,
		"imported", res.Stats.ImportedRows,
		"errors", res.Stats.ErrorRows,
		"duplicates", res.Stats.DuplicateRows,
	)
	return &loadedStatement{statement: st, mapping: mapping, result: res}, nil
}

func newStatementCommand(e *env) *cobra.Command {
	var mf mappingFlags
	var showMovements bool

	cmd := &cobra.Command{
		Use:   "statement <file>",
		Short: "Import a bank statement and show the inferred mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := e.loadStatement(args[0], &mf)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printStatement(out, ls)
			if showMovements {
				printMovements(out, ls.result.Movements)
			}
			return nil
		},
	}

	mf.register(cmd)
	cmd.Flags().BoolVar(&showMovements, "movements", false, "list the normalized movements")

	return cmd
}

func printStatement(w io.Writer, ls *loadedStatement) {
	st := ls.statement
	fmt.Fprintf(w, "File: %s (delimiter %s, %d columns, %d rows)\n",
		st.FileName, delimiterName(st.Table.Delimiter), len(st.Table.Headers), len(st.Table.Records))

	fmt.Fprintln(w, "Mapping:")
	for _, f := range model.Fields() {
		col, ok := ls.mapping.Column(f)
		if !ok {
			col = "-"
		}
		fmt.Fprintf(w, "  %-13s %s\n", f.Key(), col)
	}

	s := ls.result.Stats
	fmt.Fprintf(w, "Movements: %d imported, %d errors, %d duplicates (of %d rows)\n",
		s.ImportedRows, s.ErrorRows, s.DuplicateRows, s.TotalRows)
	printRowIssues(w, "Errors", ls.result.Errors)
	printRowIssues(w, "Duplicates", ls.result.Duplicates)
}

func printRowIssues(w io.Writer, title string, issues []importer.RowIssue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, issue := range issues {
		fmt.Fprintf(w, "  %s\n", issue.Error())
	}
}

func printMovements(w io.Writer, movements []model.Movement) {
	for _, m := range movements {
		cbi := m.CBICausale
		if cbi == "" {
			cbi = "-"
		}
		fmt.Fprintf(w, "  %-8s %s %12s %-3s cbi=%-6s %s\n",
			m.ID, m.BookingDate.Format(model.DateFormat), m.Amount.StringFixed(2), m.Direction, cbi, m.Description)
	}
}

func delimiterName(r rune) string {
	switch r {
	case '\t':
		return "tab"
	case ';':
		return "semicolon"
	case ',':
		return "comma"
	case '|':
		return "pipe"
	}
	return fmt.Sprintf("%q", r)
}
