package idproof

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridoc/idproof/x509cert"
)

func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Dump the ASN.1 structure of a certificate or security object",
		Long:  `Decode a DER or PEM file and print its ASN.1 tree with known OIDs annotated. Useful when a document fails to parse.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := x509cert.Dump(os.Stdout, data); err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}
			return nil
		},
	}
}
