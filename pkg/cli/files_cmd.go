package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

// fileVersionRow is the wire shape of one version record as the API
// returns it, shared by the files and versions commands.
type fileVersionRow struct {
	FileName    string  `json:"file_name"`
	VersionDate string  `json:"version_date"`
	Checksum    string  `json:"checksum"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     *string `json:"valid_to"`
	Current     bool    `json:"current"`
}

func newFilesCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the current version of every ingested file",
		Example: `  sgx files
  sgx files --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client.Do(http.MethodGet, "/files", nil, nil)
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}

			respBody, err := ReadBody(resp)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			var data []fileVersionRow
			if err := json.Unmarshal(respBody, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, data)
			}

			columns := []string{"file", "version date", "checksum", "valid from"}
			rows := make([][]string, 0, len(data))
			for _, item := range data {
				rows = append(rows, []string{item.FileName, item.VersionDate, shortDigest(item.Checksum), item.ValidFrom})
			}
			PrintTable(os.Stdout, columns, rows)
			return nil
		},
	}
}

func newVersionsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <file_name>",
		Short: "Show the full version history of one file",
		Example: `  sgx versions WEBPXTICK_DT.zip
  sgx versions TC.txt --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Do(http.MethodGet, "/files/"+args[0]+"/versions", nil, nil)
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}

			respBody, err := ReadBody(resp)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			var data []fileVersionRow
			if err := json.Unmarshal(respBody, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, data)
			}

			columns := []string{"version date", "checksum", "valid from", "valid to", "current"}
			rows := make([][]string, 0, len(data))
			for _, item := range data {
				validTo := ""
				if item.ValidTo != nil {
					validTo = *item.ValidTo
				}
				rows = append(rows, []string{item.VersionDate, shortDigest(item.Checksum), item.ValidFrom, validTo, fmt.Sprintf("%t", item.Current)})
			}
			PrintTable(os.Stdout, columns, rows)
			return nil
		},
	}
}
