package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/riconcilia/riconcilia/internal/buildinfo"
	"github.com/riconcilia/riconcilia/internal/config"
	"github.com/riconcilia/riconcilia/internal/logging"
)

// env carries what every subcommand needs once flags are parsed.
type env struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:     "riconcilia",
		Short:   "Reconcile bank statements with FatturaPA invoices",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.configPath, "config", config.DefaultFile, "config file (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(
		newStatementCommand(e),
		newInvoicesCommand(e),
		newMatchCommand(e),
		newDecideCommand(e),
		newSessionCommand(e),
		newInitConfigCommand(),
	)

	return rootCmd
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Logging.Level = e.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	e.cfg = cfg
	e.logger = logging.New(cfg.Logging, cmd.ErrOrStderr())
	return nil
}
