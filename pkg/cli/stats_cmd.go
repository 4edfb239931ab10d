package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"sgx-ingest/internal/service/warehouse"
)

func newStatsCmd() *cobra.Command {
	var (
		warehouseDir string
		table        string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the local warehouse tree",
		Long: "Scan the partitioned warehouse on local disk and report per-table\n" +
			"partition, file, byte, and row counts. Row counts come from DuckDB\n" +
			"scanning the members in place.",
		Example: `  sgx stats
  sgx stats --warehouse /srv/data/warehouse --table WEBPXTICK_DT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner, err := warehouse.NewScanner(warehouseDir)
			if err != nil {
				return err
			}
			defer scanner.Close() //nolint:errcheck

			stats, err := scanner.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if table != "" {
				filtered := stats[:0]
				for _, st := range stats {
					if st.Table == table {
						filtered = append(filtered, st)
					}
				}
				stats = filtered
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, stats)
			}

			if len(stats) == 0 {
				fmt.Fprintln(os.Stdout, "Warehouse is empty.")
				return nil
			}

			columns := []string{"table", "partitions", "files", "bytes", "rows"}
			rows := make([][]string, 0, len(stats))
			for _, st := range stats {
				rowCount := "?"
				if st.Rows >= 0 {
					rowCount = strconv.FormatInt(st.Rows, 10)
				}
				rows = append(rows, []string{
					st.Table,
					strconv.Itoa(st.Partitions),
					strconv.Itoa(st.Files),
					strconv.FormatInt(st.Bytes, 10),
					rowCount,
				})
			}
			PrintTable(os.Stdout, columns, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&warehouseDir, "warehouse", filepath.Join("data", "warehouse"), "Warehouse root directory")
	cmd.Flags().StringVarP(&table, "table", "t", "", "Only report this table")
	return cmd
}
