package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/domain"
	"github.com/spf13/cobra"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the objectives page and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				c.runtime.app.Config.Port = port
			}
			defer c.controller().Close()
			return c.runtime.app.Start()
		},
	}
	cmd.Flags().String("port", "", "listen port (default from config, 8000)")
	return cmd
}

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List objectives with their key results and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.controller().Refresh(cmd.Context()); err != nil {
				return err
			}
			printObjectives(c.out, c.controller().Store().Snapshot().Views())
			return nil
		},
	}
}

func (c *CLI) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create an objective",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.controller().CreateObjective(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, success(fmt.Sprintf("created objective %s (%s)", o.Title, o.Id)))
			return nil
		},
	}
}

func (c *CLI) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <objective-id> <title>",
		Short: "Change an objective's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.controller().RenameObjective(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, success(fmt.Sprintf("renamed objective %s to %s", o.Id, o.Title)))
			return nil
		},
	}
}

func (c *CLI) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <objective-id>",
		Short: "Delete an objective and its key results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return domain.NewValidationError("yes", "deleting an objective needs --yes")
			}
			if err := c.controller().DeleteObjective(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.out, success("deleted objective "+args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func (c *CLI) addKeyResultCommand() *cobra.Command {
	var draft domain.KeyResultDraft
	cmd := &cobra.Command{
		Use:   "add-kr <objective-id> <description>",
		Short: "Add a key result to an objective",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Description = strings.Join(args[1:], " ")
			kr, err := c.controller().AddKeyResult(cmd.Context(), args[0], draft)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, success(fmt.Sprintf("added key result %s (%s) %s/%s %s",
				kr.Description, kr.Id, number(kr.Current), number(kr.Target), kr.Metric)))
			return nil
		},
	}
	cmd.Flags().Float64Var(&draft.Current, "current", 0, "current measurement")
	cmd.Flags().Float64Var(&draft.Target, "target", domain.DefaultTarget, "target measurement")
	cmd.Flags().StringVar(&draft.Metric, "metric", domain.DefaultMetric, "unit label")
	return cmd
}

func (c *CLI) progressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <objective-id> <key-result-id> <current>",
		Short: "Record a key result's current measurement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return domain.NewValidationError("current", "current must be a number")
			}
			if err := domain.ValidateMeasure("current", current); err != nil {
				return err
			}
			kr, err := c.controller().UpdateProgress(cmd.Context(), args[0], args[1], current)
			if err != nil {
				return err
			}

			snapshot := c.controller().Store().Snapshot()
			o, _ := snapshot.Objective(args[0])
			fmt.Fprintln(c.out, success(fmt.Sprintf("%s now at %s/%s %s (%d%%), objective at %d%%",
				kr.Description, number(kr.Current), number(kr.Target), kr.Metric, kr.Percentage(), o.Percentage())))
			return nil
		},
	}
}

func (c *CLI) deleteKeyResultCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-kr <objective-id> <key-result-id>",
		Short: "Delete a key result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return domain.NewValidationError("yes", "deleting a key result needs --yes")
			}
			if err := c.controller().DeleteKeyResult(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(c.out, success("deleted key result "+args[1]))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func (c *CLI) generateCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Ask the assistant for a draft objective; nothing is saved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := c.runtime.app.Generator.Generate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if out == "" {
				printDraft(c.out, draft)
				return nil
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := app.SaveDraft(f, draft); err != nil {
				return err
			}
			fmt.Fprintln(c.out, success(fmt.Sprintf("draft written to %s; edit it, then run: okrs commit %s", out, out)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the draft to a YAML file for editing")
	return cmd
}

func (c *CLI) commitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commit <draft.yaml>",
		Short: "Create the objective and key results described by a draft file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			draft, err := app.LoadDraft(f)
			if err != nil {
				return domain.NewValidationError("draft", err.Error())
			}

			o, err := c.runtime.app.Generator.Commit(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, success(fmt.Sprintf("created objective %s (%s) with %d key results", o.Title, o.Id, len(o.KeyResults))))
			return nil
		},
	}
}
