package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
				if len(apiErr.AvailableDates) > 0 {
					errObj["available_dates"] = apiErr.AvailableDates
				}
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			var apiErr *APIError
			if errors.As(err, &apiErr) && len(apiErr.AvailableDates) > 0 {
				fmt.Fprintf(os.Stderr, "Available dates: %s\n", strings.Join(apiErr.AvailableDates, ", "))
			}
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		token  string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "sgx",
		Short:         "SGX derivatives ingestion CLI",
		Long:          "Command-line interface for the SGX derivatives ingestion service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Service token for the trigger endpoint")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	client := NewClient(host, token)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// Apply precedence: flag > env > default
		if !cmd.Flags().Changed("host") {
			if v := os.Getenv("SGX_HOST"); v != "" {
				host = v
			}
		}
		if !cmd.Flags().Changed("token") {
			if v := os.Getenv("SGX_TOKEN"); v != "" {
				token = v
			}
		}
		if !cmd.Flags().Changed("output") {
			if v := os.Getenv("SGX_OUTPUT"); v != "" {
				output = v
			}
		}
		if err := validateOutputFormat(output); err != nil {
			return err
		}
		// Update client with resolved values
		client.BaseURL = strings.TrimRight(host, "/")
		client.Token = token
		return nil
	}

	rootCmd.AddCommand(newRunCmd(client))
	rootCmd.AddCommand(newStatusCmd(client))
	rootCmd.AddCommand(newFilesCmd(client))
	rootCmd.AddCommand(newVersionsCmd(client))
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCommandsCmd())

	return rootCmd
}
