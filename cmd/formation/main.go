package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tmoosting/tactical-tangle/internal/api"
	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/dispatcher"
	"github.com/tmoosting/tactical-tangle/internal/editor"
	"github.com/tmoosting/tactical-tangle/internal/roster"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries the session shared by every subcommand.
type cli struct {
	configDir string
	app       *app
}

// run executes one command line and persists the session afterwards,
// whether or not the command succeeded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formation",
		Short: "Two-player formation editor",
		Long: `Builds and edits two opposing armies of formation blocks on a shared
surface. Every run loads the saved armies and writes them back on exit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.configDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configDir, "config", ".", "directory holding "+config.FileName)

	root.AddCommand(
		c.showCmd(),
		c.statsCmd(),
		c.spawnCmd(),
		c.rosterCmd(),
		c.replayCmd(),
		c.uploadCmd(),
		c.migrateCmd(),
	)
	return root
}

// players returns args, or every configured player when args is empty.
func (c *cli) players(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return c.app.service.Players()
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [player]",
		Short: "Print the units of one or both armies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range c.players(args) {
				res := c.app.service.ListUnits(p)
				if err := res.Error(); err != nil {
					return err
				}
				printUnits(out, p, res.Data.([]core.Unit))
			}
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [player]",
		Short: "Print the point and soldier totals of one or both armies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range c.players(args) {
				res := c.app.service.GetArmyStats(p)
				if err := res.Error(); err != nil {
					return err
				}
				printStats(out, p, res.Data.(core.ArmyStats))
			}
			return nil
		},
	}
}

func (c *cli) spawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn <player> <type>",
		Short: "Create a unit of the given type (light, hoplite, cavalry)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.dispatcher.Dispatch(dispatcher.Event{Command: editor.CmdUnitCreate, Args: args})
			if err != nil {
				return err
			}
			res := out.(core.Result)
			if err := res.Error(); err != nil {
				return err
			}
			u, _ := res.Unit()
			printUnits(cmd.OutOrStdout(), args[0], []core.Unit{u})
			return nil
		},
	}
}

func (c *cli) rosterCmd() *cobra.Command {
	var filter, unitID string
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List roster characters and whether they are free to assign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chars, err := roster.Filter(c.app.roster, filter)
			if err != nil {
				return err
			}
			res := c.app.service.AvailableCharacters(unitID)
			if err := res.Error(); err != nil {
				return err
			}
			free := make(map[string]bool)
			for _, ch := range res.Data.([]core.Character) {
				free[ch.ID] = true
			}
			printRoster(cmd.OutOrStdout(), chars, free)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", `filter expression, e.g. name startsWith "Leo"`)
	cmd.Flags().StringVar(&unitID, "unit", "", "check availability for this unit")
	return cmd
}

func (c *cli) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script>",
		Short: "Run a file of editor commands, one per line",
		Long: `Each line holds a command followed by its arguments, e.g.
  :UNIT:CREATE: athens hoplite
  :UNIT:RENAME: u-1 "Sacred Band"
Blank lines and lines starting with # are skipped. Edit history lasts
for one run, so undo and redo go in the same script as the edits:
  :UNIT:CREATE: athens light
  :HISTORY:UNDO: athens`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open script: %w", err)
			}
			defer f.Close()
			return c.replay(cmd.OutOrStdout(), f)
		},
	}
}

func (c *cli) replay(out io.Writer, r io.Reader) error {
	okColor := color.New(color.FgGreen)
	failColor := color.New(color.FgRed)

	var failed int
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		res, err := c.app.dispatcher.DispatchLine(line)
		if errors.Is(err, dispatcher.ErrEmptyLine) {
			continue
		}
		if err == nil {
			if result, ok := res.(core.Result); ok {
				err = result.Error()
			}
		}
		if err != nil {
			failed++
			failColor.Fprintf(out, "FAIL %d: %s: %v\n", n, line, err)
			continue
		}
		okColor.Fprintf(out, "OK   %d: %s\n", n, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d command(s) failed", failed)
	}
	return nil
}

func (c *cli) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Write the armies and send the export to the web API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			players := c.app.service.Players()
			if err := c.app.Close(); err != nil {
				return err
			}
			path := c.app.exportPath()
			if path == "" {
				return fmt.Errorf("storage backend %s does not export a file", config.GetStorageConfig().Type)
			}
			rc := config.GetRosterConfig()
			if err := api.New(rc.ServerURL, rc.APIKey).UploadArmies(cmd.Context(), path, players); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", path)
			return nil
		},
	}
}
