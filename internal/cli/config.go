//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/kaswallet/internal/config"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify kaswallet configuration settings.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Create a default configuration file at ~/.kaswallet/config.yaml.

An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tree, err := configTree(cfg)
		if err != nil {
			return err
		}
		if formatter.IsJSON() {
			return formatter.Print(tree)
		}
		return writeYAML(cmd.OutOrStdout(), tree)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by its dotted path.

Examples:
  kaswallet config get node.url
  kaswallet config get discovery.gap_limit`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dotted path and save the file.

Examples:
  kaswallet config set network testnet
  kaswallet config set platform_fee.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := config.Path(cfg.HomePath())
	if _, err := os.Stat(path); err == nil && !configForce {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrGeneral, map[string]string{"path": path}),
			"Configuration already exists. Use --force to overwrite",
		)
	}

	defaults := config.Defaults()
	defaults.Home = cfg.Home
	if err := config.Save(defaults, path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	tree, err := configTree(cfg)
	if err != nil {
		return err
	}
	value, ok := lookup(tree, args[0])
	if !ok {
		return unknownConfigPath(args[0])
	}
	if m, isMap := value.(map[string]any); isMap {
		return writeYAML(cmd.OutOrStdout(), m)
	}
	outln(cmd.OutOrStdout(), fmt.Sprint(value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path := config.Path(cfg.HomePath())
	current, err := config.Load(path)
	if err != nil {
		if !walleterr.Is(err, walleterr.ErrConfigNotFound) {
			return err
		}
		current = config.Defaults()
		current.Home = cfg.Home
	}

	updated, err := setConfigValue(current, args[0], args[1])
	if err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := config.Save(updated, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	out(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
	return nil
}

// configTree renders cfg as nested maps keyed by the YAML field names.
func configTree(c *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	tree := make(map[string]any)
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func lookup(tree map[string]any, path string) (any, bool) {
	var cur any = tree
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// setConfigValue returns a copy of c with the leaf at path replaced. The
// value is parsed as a YAML scalar so numbers and booleans keep their type.
func setConfigValue(c *config.Config, path, raw string) (*config.Config, error) {
	tree, err := configTree(c)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(path, ".")
	parent := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := parent[part].(map[string]any)
		if !ok {
			return nil, unknownConfigPath(path)
		}
		parent = next
	}
	leaf := parts[len(parts)-1]
	old, ok := parent[leaf]
	if !ok {
		return nil, unknownConfigPath(path)
	}
	if _, isMap := old.(map[string]any); isMap {
		return nil, unknownConfigPath(path)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}
	parent[leaf] = value

	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, err
	}
	updated := config.Defaults()
	if err := yaml.Unmarshal(data, updated); err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrConfigInvalid, map[string]string{path: raw})
	}
	return updated, nil
}

func unknownConfigPath(path string) error {
	return walleterr.WithSuggestion(
		walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{"path": path}),
		"Run 'kaswallet config show' to list the available settings",
	)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")

	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
