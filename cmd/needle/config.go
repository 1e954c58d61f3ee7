package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/needle/nn"
)

// runConfig is the on-disk description of a model and one forward pass.
type runConfig struct {
	Model nn.TransformerConfig `yaml:"model"`
	Batch int                  `yaml:"batch"`
	// SeqLen is the input length; zero means the model's SequenceLen.
	SeqLen int    `yaml:"seq_len"`
	Seed   uint64 `yaml:"seed"`
	Eval   bool   `yaml:"eval"`
}

func defaultRunConfig() runConfig {
	model := nn.DefaultTransformerConfig(64, 256, 2)
	model.SequenceLen = 128
	return runConfig{
		Model: model,
		Batch: 2,
		Seed:  42,
	}
}

// loadRunConfig reads path on top of the defaults. An empty path returns the
// defaults unchanged.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := decodeRunConfig(f, &cfg); err != nil {
		return runConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeRunConfig(r io.Reader, cfg *runConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return cfg.validate()
}

func (c runConfig) validate() error {
	if c.Batch <= 0 {
		return fmt.Errorf("batch must be positive, got %d", c.Batch)
	}
	if c.SeqLen < 0 || c.SeqLen > c.Model.SequenceLen {
		return fmt.Errorf("seq_len %d outside [0, %d]", c.SeqLen, c.Model.SequenceLen)
	}
	return c.Model.Validate()
}

func (c runConfig) seqLen() int {
	if c.SeqLen == 0 {
		return c.Model.SequenceLen
	}
	return c.SeqLen
}
