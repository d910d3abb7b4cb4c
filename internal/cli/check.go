package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// checkReport is the JSON form of a check result.
type checkReport struct {
	OK      bool   `json:"ok"`
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario>",
		Short: "Apply a scenario and audit edge/backlink symmetry",
		Long: "Apply the scenario like run, then verify that every hyperlink has a\n" +
			"matching backlink and no edge points at a removed node. Exits with\n" +
			"status 2 when the store is inconsistent.",
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := replay(args[0])
	if err != nil {
		return err
	}

	report := checkReport{OK: true, Nodes: g.NodeCount(), Edges: g.EdgeCount()}
	violation := g.CheckSymmetry()
	if violation != nil {
		report.OK = false
		report.Code = violation.Code
		report.Message = violation.Message
	}

	out := cmd.OutOrStdout()
	if current.settings.Output == outputJSON {
		data, err := json.Marshal(report)
		if err != nil {
			return exitError(exitSysError, err)
		}
		fmt.Fprintln(out, string(data))
	} else if report.OK {
		fmt.Fprintf(out, "ok: %d nodes, %d edges\n", report.Nodes, report.Edges)
	} else {
		fmt.Fprintf(out, "FAIL %s: %s\n", report.Code, report.Message)
	}

	if violation != nil {
		return exitError(exitSysError, violation)
	}
	return nil
}
