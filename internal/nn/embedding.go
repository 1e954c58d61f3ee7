package nn

import (
	"math"

	"github.com/born-ml/needle/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [num_embeddings, embedding_dim] learnable parameter, N(0, 1)
//   - Forward: indices [...] -> embeddings [..., embedding_dim]
//
// The lookup is a one-hot encoding multiplied by the weight, so gradients
// reach exactly the selected rows.
//
// Example:
//
//	embed := nn.NewEmbedding(10000, 256, backend)
//	ids, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
//	out := embed.Forward(ids) // [2, 3, 256]
type Embedding[B tensor.Backend] struct {
	ModuleBase

	numEmbeddings int
	embeddingDim  int
	weight        *Parameter[B]
}

// NewEmbedding creates a new Embedding layer with weights drawn from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panicConfig("NewEmbedding", "num=%d dim=%d must be positive", numEmbeddings, embeddingDim)
	}
	w := tensor.Randn[float32](tensor.Shape{numEmbeddings, embeddingDim}, 0, 1, backend)
	return &Embedding[B]{
		numEmbeddings: numEmbeddings,
		embeddingDim:  embeddingDim,
		weight:        NewParameter("weight", w),
	}
}

// Forward looks up x, a tensor of integral indices of any shape, and
// returns embeddings of shape x.Shape() + [embedding_dim].
func (e *Embedding[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	values := x.Data()
	indices := make([]int, len(values))
	for i, v := range values {
		if v != float32(math.Trunc(float64(v))) {
			panicShape("Embedding.Forward", "index %v is not integral", v)
		}
		indices[i] = int(v)
	}

	outShape := append(x.Shape().Clone(), e.embeddingDim)
	return e.Lookup(indices, x.Backend()).Reshape(outShape...)
}

// Lookup returns the rows selected by indices as a [len(indices), embedding_dim] tensor.
func (e *Embedding[B]) Lookup(indices []int, backend B) *tensor.Tensor[float32, B] {
	if len(indices) == 0 {
		panicShape("Embedding.Lookup", "no indices")
	}
	for _, idx := range indices {
		if idx < 0 || idx >= e.numEmbeddings {
			panicShape("Embedding.Lookup", "index %d out of range [0, %d)", idx, e.numEmbeddings)
		}
	}
	oneHot := tensor.OneHot[float32](indices, e.numEmbeddings, backend)
	return oneHot.MatMul(e.weight.Tensor())
}

// Fields declares the embedding table.
func (e *Embedding[B]) Fields() []Field[B] {
	return []Field[B]{ParamField(e.weight)}
}

// Weight returns the embedding table parameter.
func (e *Embedding[B]) Weight() *Parameter[B] {
	return e.weight
}

// NumEmbeddings returns the size of the table.
func (e *Embedding[B]) NumEmbeddings() int {
	return e.numEmbeddings
}

// EmbeddingDim returns the size of each vector.
func (e *Embedding[B]) EmbeddingDim() int {
	return e.embeddingDim
}
