package nn

import (
	"fmt"

	"github.com/born-ml/needle/internal/tensor"
)

// TransformerConfig defines the configuration for a Transformer.
type TransformerConfig struct {
	EmbeddingSize int     `yaml:"embedding_size"` // d_model
	HiddenSize    int     `yaml:"hidden_size"`    // MLP hidden dimension
	NumLayers     int     `yaml:"num_layers"`     // Number of TransformerLayer blocks
	NumHead       int     `yaml:"num_head"`       // Attention heads per layer
	DimHead       int     `yaml:"dim_head"`       // Size of each head
	Dropout       float64 `yaml:"dropout"`        // Dropout rate everywhere in the stack
	Causal        bool    `yaml:"causal"`         // Mask future positions
	BatchFirst    bool    `yaml:"batch_first"`    // Input is [batch, seq, emb] rather than [seq, batch, emb]
	SequenceLen   int     `yaml:"sequence_len"`   // Maximum sequence length (positional table size)
	Activation    string  `yaml:"activation"`     // MLP nonlinearity, only "relu"
}

// DefaultTransformerConfig returns a config with the standard defaults
// filled in for the given sizes.
func DefaultTransformerConfig(embeddingSize, hiddenSize, numLayers int) TransformerConfig {
	return TransformerConfig{
		EmbeddingSize: embeddingSize,
		HiddenSize:    hiddenSize,
		NumLayers:     numLayers,
		NumHead:       8,
		DimHead:       32,
		Causal:        true,
		SequenceLen:   2048,
		Activation:    "relu",
	}
}

// Validate checks the configuration.
func (c TransformerConfig) Validate() error {
	switch {
	case c.EmbeddingSize <= 0:
		return fmt.Errorf("embedding_size %d: %w", c.EmbeddingSize, ErrInvalidConfig)
	case c.HiddenSize <= 0:
		return fmt.Errorf("hidden_size %d: %w", c.HiddenSize, ErrInvalidConfig)
	case c.NumLayers < 0:
		return fmt.Errorf("num_layers %d: %w", c.NumLayers, ErrInvalidConfig)
	case c.NumHead <= 0:
		return fmt.Errorf("num_head %d: %w", c.NumHead, ErrInvalidConfig)
	case c.DimHead <= 0:
		return fmt.Errorf("dim_head %d: %w", c.DimHead, ErrInvalidConfig)
	case c.SequenceLen <= 0:
		return fmt.Errorf("sequence_len %d: %w", c.SequenceLen, ErrInvalidConfig)
	case c.Dropout < 0 || c.Dropout >= 1:
		return fmt.Errorf("dropout %v: %w", c.Dropout, ErrInvalidConfig)
	case c.Activation != "" && c.Activation != "relu":
		return fmt.Errorf("activation %q: %w", c.Activation, ErrUnsupported)
	}
	return nil
}

// TransformerLayer is a pre-norm residual block:
//
//	x = x + Dropout(Attention(x))
//	x = x + MLP(LayerNorm(x))
//
// with MLP = Linear(D, hidden) → ReLU → Dropout → Linear(hidden, D) → Dropout.
// The attention sublayer normalizes its own inputs.
//
// Input/output shape: [batch, seq, q_features]
type TransformerLayer[B tensor.Backend] struct {
	ModuleBase

	features int
	attn     *AttentionLayer[B]
	resblock *Sequential[B] // attention → dropout
	norm     *LayerNorm1d[B]
	mlp      *Sequential[B]
}

// NewTransformerLayer creates one transformer block.
func NewTransformerLayer[B tensor.Backend](
	qFeatures, numHead, dimHead, hiddenSize int,
	dropout float64,
	causal bool,
	backend B,
) *TransformerLayer[B] {
	attn := NewAttentionLayer(AttentionConfig{
		QFeatures: qFeatures,
		NumHead:   numHead,
		DimHead:   dimHead,
		Dropout:   dropout,
		Causal:    causal,
	}, backend)

	return &TransformerLayer[B]{
		features: qFeatures,
		attn:     attn,
		resblock: NewSequential[B](attn, NewDropout[B](dropout)),
		norm:     NewLayerNorm1d(qFeatures, DefaultEps, backend),
		mlp: NewSequential[B](
			NewLinear(qFeatures, hiddenSize, true, backend),
			NewReLU[B](),
			NewDropout[B](dropout),
			NewLinear(hiddenSize, qFeatures, true, backend),
			NewDropout[B](dropout),
		),
	}
}

// Forward applies the block to x of shape [batch, seq, q_features].
func (t *TransformerLayer[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != t.features {
		panicShape("TransformerLayer.Forward", "expected [batch, seq, %d], got %v", t.features, shape)
	}
	batch, seq := shape[0], shape[1]

	x = x.Add(t.resblock.Forward(x))

	h := t.norm.Forward(x.Reshape(batch*seq, t.features))
	h = t.mlp.Forward(h).Reshape(batch, seq, t.features)
	return x.Add(h)
}

// Fields declares the attention block, the norm and the MLP.
func (t *TransformerLayer[B]) Fields() []Field[B] {
	return []Field[B]{
		ModuleField[B](t.resblock),
		ModuleField[B](t.norm),
		ModuleField[B](t.mlp),
	}
}

// Attention returns the attention sublayer.
func (t *TransformerLayer[B]) Attention() *AttentionLayer[B] {
	return t.attn
}

// Transformer is a stack of TransformerLayer blocks with a learned
// positional embedding.
//
// Architecture:
//
//	x [seq, batch, emb] (or [batch, seq, emb] when BatchFirst)
//	  → + PositionEmbedding(0..seq-1)
//	  → TransformerLayer × NumLayers
//	  → output in the input layout
//
// Example:
//
//	cfg := nn.DefaultTransformerConfig(64, 128, 2)
//	cfg.BatchFirst = true
//	model, err := nn.NewTransformer(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	out, _ := model.Forward(x, nil) // [batch, seq, 64]
type Transformer[B tensor.Backend] struct {
	ModuleBase

	cfg               TransformerConfig
	positionEmbedding *Embedding[B]
	layers            *Sequential[B]
}

// NewTransformer validates cfg and builds the model. Invalid configurations
// return an error wrapping ErrInvalidConfig or ErrUnsupported.
func NewTransformer[B tensor.Backend](cfg TransformerConfig, backend B) (*Transformer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewTransformer: %w", err)
	}

	layers := make([]Layer[B], cfg.NumLayers)
	for i := range layers {
		layers[i] = NewTransformerLayer(
			cfg.EmbeddingSize, cfg.NumHead, cfg.DimHead, cfg.HiddenSize,
			cfg.Dropout, cfg.Causal, backend,
		)
	}

	return &Transformer[B]{
		cfg:               cfg,
		positionEmbedding: NewEmbedding(cfg.SequenceLen, cfg.EmbeddingSize, backend),
		layers:            NewSequential[B](layers...),
	}, nil
}

// Config returns the model configuration.
func (t *Transformer[B]) Config() TransformerConfig {
	return t.cfg
}

// Forward runs the stack over x.
//
// The second argument is reserved for a recurrent state and is ignored.
// The second result has the shape of the output and is always zero.
func (t *Transformer[B]) Forward(x, _ *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	if x.Ndim() != 3 {
		panicShape("Transformer.Forward", "expected 3D input, got shape %v", x.Shape())
	}
	if !t.cfg.BatchFirst {
		x = x.SwapAxes(0, 1)
	}

	shape := x.Shape()
	batch, seq, emb := shape[0], shape[1], shape[2]
	if emb != t.cfg.EmbeddingSize {
		panicShape("Transformer.Forward", "expected embedding size %d, got %d", t.cfg.EmbeddingSize, emb)
	}
	if seq > t.cfg.SequenceLen {
		panicShape("Transformer.Forward", "sequence length %d exceeds maximum %d", seq, t.cfg.SequenceLen)
	}

	positions := make([]int, seq)
	for i := range positions {
		positions[i] = i
	}
	pos := t.positionEmbedding.Lookup(positions, x.Backend()).
		Reshape(1, seq, emb).
		Expand(tensor.Shape{batch, seq, emb})

	x = t.layers.Forward(x.Add(pos))

	if !t.cfg.BatchFirst {
		x = x.SwapAxes(0, 1)
	}
	return x, tensor.ZerosLike(x)
}

// Fields declares the positional embedding and the layer stack.
func (t *Transformer[B]) Fields() []Field[B] {
	return []Field[B]{
		ModuleField[B](t.positionEmbedding),
		ModuleField[B](t.layers),
	}
}

// Layers returns the stacked blocks.
func (t *Transformer[B]) Layers() *Sequential[B] {
	return t.layers
}
