package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in dagger's version
	VersionMajor = 0
	// VersionMinor is the minor number in dagger's version
	VersionMinor = 3
	// VersionPatch is the patch number in dagger's version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dagger",
		// Skip configuration loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dagger v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
