package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/born-ml/needle/backend/cpu"
	"github.com/born-ml/needle/nn"
)

func newParamsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "List the parameters and modules of the configured transformer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listParams(cmd, root)
		},
	}
}

func listParams(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadRunConfig(opts.configPath)
	if err != nil {
		return err
	}
	model, err := nn.NewTransformer(cfg.Model, cpu.New(cpu.WithSeed(cfg.Seed)))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSHAPE\tCOUNT")
	for i, p := range nn.Parameters[*cpu.Backend](model) {
		fmt.Fprintf(w, "%d\t%s\t%v\t%d\n", i, p.Name(), p.Shape(), p.Shape().NumElements())
	}
	fmt.Fprintf(w, "\ttotal\t\t%d\n", nn.NumParameters[*cpu.Backend](model))
	if err := w.Flush(); err != nil {
		return err
	}

	counts := lo.CountValuesBy(nn.Modules[*cpu.Backend](model), moduleKind)
	kinds := lo.Keys(counts)
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(cmd.OutOrStdout(), "%s x%d\n", k, counts[k])
	}
	return nil
}

// moduleKind names a module by its type without package or type arguments.
func moduleKind(m nn.Module[*cpu.Backend]) string {
	name := fmt.Sprintf("%T", m)
	name = strings.TrimPrefix(name, "*")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
