// Command glove runs the gesture glove collector and its tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-sod/glove/internal/buildinfo"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "glove",
		Short:         "Gesture glove collector",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServiceCmd,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newPackCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Info.String())
			return err
		},
	}
}
