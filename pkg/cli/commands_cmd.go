package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandEntry describes one runnable command for introspection output.
type CommandEntry struct {
	Path    string      `json:"path"`
	Short   string      `json:"short"`
	Long    string      `json:"long,omitempty"`
	Example string      `json:"example,omitempty"`
	Args    string      `json:"args,omitempty"`
	Flags   []FlagEntry `json:"flags,omitempty"`
}

// FlagEntry describes one flag on a command.
type FlagEntry struct {
	Name    string `json:"name"`
	Short   string `json:"shorthand,omitempty"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

func newCommandsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List all available CLI commands with their flags and descriptions",
		Long: "Introspects the command tree and lists every command with its path,\n" +
			"description, flags, and examples. Works offline (no API calls needed).",
		Example: `  # List all commands
  sgx commands

  # Search for commands related to versions
  sgx commands --filter version

  # Full command metadata for scripting
  sgx commands --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := leafCommands(cmd.Root(), "")
			if filter != "" {
				entries = filterEntries(entries, filter)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Path, e.Short})
			}
			PrintTable(os.Stdout, []string{"path", "description"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Substring search across command names and descriptions")
	return cmd
}

// leafCommands flattens the cobra tree into runnable entries, depth first.
// Hidden commands and cobra's generated help/completion are skipped.
func leafCommands(cmd *cobra.Command, prefix string) []CommandEntry {
	var entries []CommandEntry

	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}

		path := child.Name()
		if prefix != "" {
			path = prefix + " " + child.Name()
		}

		if child.HasSubCommands() {
			entries = append(entries, leafCommands(child, path)...)
			continue
		}

		entries = append(entries, leafEntry(child, path))
	}

	return entries
}

// leafEntry captures one runnable command. Positional arguments are whatever
// follows the command name on its Use line.
func leafEntry(cmd *cobra.Command, path string) CommandEntry {
	e := CommandEntry{
		Path:    path,
		Short:   cmd.Short,
		Long:    cmd.Long,
		Example: cmd.Example,
	}

	if fields := strings.Fields(cmd.Use); len(fields) > 1 {
		e.Args = strings.Join(fields[1:], " ")
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		e.Flags = append(e.Flags, FlagEntry{
			Name:    f.Name,
			Short:   f.Shorthand,
			Type:    f.Value.Type(),
			Default: f.DefValue,
			Usage:   f.Usage,
		})
	})

	return e
}

func filterEntries(entries []CommandEntry, filter string) []CommandEntry {
	needle := strings.ToLower(filter)

	var kept []CommandEntry
	for _, e := range entries {
		haystack := strings.ToLower(e.Path + " " + e.Short + " " + e.Long)
		if strings.Contains(haystack, needle) {
			kept = append(kept, e)
		}
	}
	return kept
}
