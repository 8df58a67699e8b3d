// docassist - command-line client for the document assistant backend.
//
// Stage PDF and Office documents, upload them in sequential batches,
// manage the uploaded library and ask the assistant about it.
// 'docassist dev-backend' runs a local in-memory backend for development.
package main

import (
	"os"

	"github.com/docassist/docassist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
