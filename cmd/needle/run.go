package main

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/needle/backend/cpu"
	"github.com/born-ml/needle/nn"
	"github.com/born-ml/needle/tensor"
)

type runOptions struct {
	*rootOptions
	repeat int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the configured transformer and run forward passes on random input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}
	cmd.Flags().IntVarP(&opts.repeat, "repeat", "n", 1, "number of forward passes")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) error {
	log := o.logger(cmd)
	if o.repeat <= 0 {
		return fmt.Errorf("repeat must be positive, got %d", o.repeat)
	}

	cfg, err := loadRunConfig(o.configPath)
	if err != nil {
		return err
	}
	log.Debug("config loaded", "path", o.configPath, "model", cfg.Model)

	backend := cpu.New(cpu.WithSeed(cfg.Seed))
	model, err := nn.NewTransformer(cfg.Model, backend)
	if err != nil {
		return err
	}
	if cfg.Eval {
		nn.Eval[*cpu.Backend](model)
	}
	log.Info("model built",
		"layers", cfg.Model.NumLayers,
		"parameters", nn.NumParameters[*cpu.Backend](model),
		"training", model.Training())

	shape := inputShape(cfg)
	x := tensor.Randn[float32](shape, 0, 1, backend)

	var out *tensor.Tensor[float32, *cpu.Backend]
	for i := 0; i < o.repeat; i++ {
		start := time.Now()
		out, _ = model.Forward(x, nil)
		log.Debug("forward", "pass", i, "elapsed", time.Since(start))
	}

	mean, std := stat.MeanStdDev(lo.Map(out.Data(), func(v float32, _ int) float64 { return float64(v) }), nil)
	log.Info("forward done", "input", shape, "output", out.Shape(), "mean", mean, "std", std)
	fmt.Fprintf(cmd.OutOrStdout(), "output %v mean=%.6f std=%.6f\n", out.Shape(), mean, std)
	return nil
}

// inputShape lays out (batch, seq, emb) in the order the model expects.
func inputShape(cfg runConfig) tensor.Shape {
	if cfg.Model.BatchFirst {
		return tensor.Shape{cfg.Batch, cfg.seqLen(), cfg.Model.EmbeddingSize}
	}
	return tensor.Shape{cfg.seqLen(), cfg.Batch, cfg.Model.EmbeddingSize}
}
