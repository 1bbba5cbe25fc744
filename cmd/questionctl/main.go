package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sql-playground/internal/app"
	"sql-playground/internal/config"
	"sql-playground/internal/observability"
)

type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:           "questionctl",
		Short:         "Parse practice questions and load them into the SQL playground warehouse",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.cfg = cfg
			c.logger = observability.NewLogger(cmd.ErrOrStderr(), level, cfg.Log.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to TOML config file")
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "Enable debug logging")
	root.SetOut(stdout)
	root.SetIn(stdin)

	root.AddCommand(c.parseCmd(), c.loadCmd(), c.queryCmd())
	return root
}

// readInput reads the question from the named file, or stdin for "-" or no
// argument.
func (c *cli) readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *cli) openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, c.cfg, c.logger)
}
