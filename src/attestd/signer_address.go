package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stake-plus/allowlist-attest/src/attestd/config"
	"github.com/stake-plus/allowlist-attest/src/attestd/signer"
)

func newSignerAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signer-address",
		Short: "Print the address contracts should trust, derived from PRIVATE_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := signer.New(config.SigningKey())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Address().Hex())
			return nil
		},
	}
}
