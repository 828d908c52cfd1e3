package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orgctl",
		Short:         "Organization tree maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newCheckHierarchyCmd())
	cmd.AddCommand(newLabelsCmd())
	cmd.AddCommand(newUsersCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
