package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkgraph/internal/scenario"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario>",
		Short: "Apply a scenario and print the resulting graph",
		Long: "Build a graph from the scenario file, apply its operations in order and\n" +
			"print every remaining node with its edges and backlinks. A bare name is\n" +
			"looked up in the scenarios directory of the configuration directory.",
		Args: cobra.ExactArgs(1),
		RunE: runScenario,
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	g, err := replay(args[0])
	if err != nil {
		return err
	}
	snap, err := scenario.Take(g)
	if err != nil {
		return exitError(exitSysError, err)
	}

	out := cmd.OutOrStdout()
	if current.settings.Output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return exitError(exitSysError, fmt.Errorf("encode snapshot: %w", err))
		}
		return nil
	}
	if err := snap.WriteText(out); err != nil {
		return exitError(exitSysError, err)
	}
	return nil
}
