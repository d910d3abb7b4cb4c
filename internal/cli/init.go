package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/linkgraph/internal/paths"
)

// exampleScenario is written to the scenarios directory by init.
const exampleScenario = `# Two parallel edges from A to B and one from B to C.
# Deleting B removes all three.
nodes:
  - key: a
    name: A
    attrs: {name: root, root: 1}
  - {key: b, name: B}
  - {key: c, name: C}
edges:
  - {key: ab1, from: a, to: b}
  - {key: ab2, from: a, to: b}
  - {key: bc, from: b, to: c}
ops:
  - del_node: b
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the linkgraph configuration directory",
		Long:  "Create the configuration directory with a default config.yaml and an example scenario.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := current.configDir
	scenarios := filepath.Join(dir, paths.ScenarioDirName)

	if err := os.MkdirAll(scenarios, 0o755); err != nil {
		return exitError(exitSysError, fmt.Errorf("create config directory: %w", err))
	}
	if err := writeConfigIfMissing(filepath.Join(dir, configFileExt)); err != nil {
		return exitError(exitSysError, fmt.Errorf("write config: %w", err))
	}
	example := filepath.Join(scenarios, "example"+paths.ScenarioExt)
	if err := writeIfMissing(example, []byte(exampleScenario)); err != nil {
		return exitError(exitSysError, fmt.Errorf("write example scenario: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "linkgraph initialized in %s\n", dir)
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(path string) error {
	def := defaultSettings()
	data, err := yaml.Marshal(&def)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeIfMissing(path, data)
}

func writeIfMissing(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}
