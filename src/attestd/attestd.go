package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "attestd",
		Short:         "Issues signed allowlist attestations for verified Twitter and Discord identities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSignerAddressCmd())

	if err := root.Execute(); err != nil {
		os.Stderr.WriteString("attestd: " + err.Error() + "\n")
		os.Exit(1)
	}
}
