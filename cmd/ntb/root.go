package main

import (
	"fmt"
	"io"

	"github.com/aretw0/ntb/internal/host"
	"github.com/spf13/cobra"
)

// newRootCmd builds the ntb command. Flag parsing is left to the host so every
// argument, flags included, reaches the build script unfiltered. The exit code of
// the run is stored in code.
func newRootCmd(program string, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "ntb [manifest path]",
		Short: "NTB - A Hackable Build Generator",
		Long: `ntb bootstraps a Lua runtime with the hash primitive and the lfs library,
then runs the "ntb.main" build script module with the given arguments.`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		Run: func(cmd *cobra.Command, args []string) {
			argv := append([]string{program}, args...)
			*code = host.New(host.WithStderr(cmd.ErrOrStderr())).Run(cmd.Context(), argv)
		},
	}
}

// Execute runs the root command with args and returns the process exit code.
func Execute(program string, args []string, stderr io.Writer) int {
	code := 0
	cmd := newRootCmd(program, &code)
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	return code
}
