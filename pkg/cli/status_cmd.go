package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service status",
		Example: `  sgx status
  sgx status --host http://ingest.internal:8080 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client.Do(http.MethodGet, "/status", nil, nil)
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

			var data map[string]interface{}
			if err := json.Unmarshal(respBody, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, data)
			}
			PrintDetail(os.Stdout, data)
			return nil
		},
	}
}
