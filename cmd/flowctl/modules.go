package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/flowcoord/internal/flow"
	"github.com/vampirenirmal/flowcoord/internal/flowmodules"
)

// builtinModules returns a registry pre-populated with every module
// flowctl ships, keyed by the name a pipeline manifest references them
// under.
func builtinModules() *flow.ModuleRegistry {
	reg := flow.NewModuleRegistry()
	reg.Register("identity", func() flow.Module { return flowmodules.Identity{} })
	reg.Register("double", func() flow.Module { return flowmodules.Double() })
	reg.Register("add_one", func() flow.Module { return flowmodules.AddOne() })
	reg.Register("sum_accumulate", func() flow.Module { return flowmodules.SumAccumulate{} })
	reg.Register("echo", func() flow.Module { return flowmodules.Echo{} })
	reg.Register("memoize_double", func() flow.Module { return flowmodules.MemoizeDouble() })
	return reg
}

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the built-in module names pipeline manifests may reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range builtinModules().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
