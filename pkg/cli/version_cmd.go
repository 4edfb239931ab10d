package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sgx-ingest/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"version":    buildinfo.Version,
					"commit":     buildinfo.GitCommit,
					"build_time": buildinfo.BuildTime,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "sgx version %s\n", buildinfo.Info())
			return nil
		},
	}
}
