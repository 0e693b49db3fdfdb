package main

import (
	"github.com/spf13/cobra"

	"github.com/veridoc/idproof/cmd/idproof"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "idproof",
		Short: "Identity-document proof-input service",
		Long:  `Tools and APIs for turning identity documents into privacy-preserving proof inputs`,
	}

	rootCmd.AddCommand(
		idproof.NewServeCmd(),
		idproof.NewInspectCmd(),
		idproof.NewBuildTreeCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}
