// Package cli wires configuration, the remote store and the controller into
// the okrs command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type CLI struct {
	v          *viper.Viper
	configPath string
	out        io.Writer
	errOut     io.Writer

	cfg     app.Config
	runtime runtime
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdout, os.Stderr)
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	cli := &CLI{v: newViper(), out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "okrs",
		Short:         "Track objectives and key results against the OKR service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cli.configPath, "config", "", "config file (default ./okrs.yaml or $HOME/.config/okrs/okrs.yaml)")
	flags.String("base-url", "", "persistence service base URL")
	flags.String("generator-url", "", "suggestion service base URL (defaults to base URL)")
	flags.String("api-key", "", "API key for the OKR services")
	flags.Duration("request-timeout", 0, "per-request timeout, 0 waits indefinitely")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	for key, flag := range map[string]string{
		"base_url":        "base-url",
		"generator_url":   "generator-url",
		"api_key":         "api-key",
		"request_timeout": "request-timeout",
		"log_level":       "log-level",
		"log_format":      "log-format",
	} {
		_ = cli.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		cli.serveCommand(),
		cli.listCommand(),
		cli.createCommand(),
		cli.renameCommand(),
		cli.deleteCommand(),
		cli.addKeyResultCommand(),
		cli.progressCommand(),
		cli.deleteKeyResultCommand(),
		cli.generateCommand(),
		cli.commitCommand(),
	)

	return rootCmd
}

func (c *CLI) initialize() error {
	if err := readConfigFile(c.v, c.configPath); err != nil {
		return err
	}

	cfg, err := loadConfig(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	slog.SetDefault(newLogger(c.errOut, cfg))
	c.runtime = build(cfg)
	return nil
}

func (c *CLI) controller() *app.Controller {
	return c.runtime.app.Controller
}

// Execute runs the root command and reports failures the way the rest of the
// CLI prints them.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, failure(err))
		return 1
	}
	return 0
}
