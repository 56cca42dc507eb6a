// authswitch runs the credential switch scenario against a SQLite store.
//
// Usage:
//
//	authswitch demo [--config path] [--debug]
//	authswitch version
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "authswitch",
		Short:         "Observe credential switches on login sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newDemoCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "authswitch version %s\n", Version)
			fmt.Fprintf(out, "  Commit: %s\n", Commit)
			fmt.Fprintf(out, "  Built:  %s\n", BuildDate)
			fmt.Fprintf(out, "  Go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
