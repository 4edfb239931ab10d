// Package main is the entry point for the sgx CLI binary.
package main

import (
	"os"

	_ "github.com/duckdb/duckdb-go/v2"

	cli "sgx-ingest/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
