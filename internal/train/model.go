package train

import (
	"github.com/chorus-ml/chorus/internal/autodiff"
	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Backend is the backend a training loop runs on. Gradient support is part
// of the contract so steps can control recording explicitly.
type Backend interface {
	autodiff.BackwardCapable
}

// Output is the typed result of a classifier forward pass.
type Output[B tensor.Backend] struct {
	// LabelLogits holds unnormalized class scores [batch_size, num_classes].
	LabelLogits *tensor.Tensor[float32, B]
}

// Classifier is a multimodal model trainable by this loop. Forward decodes
// only the output positions named by the subsampling.
type Classifier[B tensor.Backend] interface {
	Forward(batch data.Batch[B], sub Subsampling) *Output[B]
	Parameters() []*nn.Parameter[B]
}

// Loss scores logits against one-hot targets, returning a scalar tensor.
type Loss[B tensor.Backend] interface {
	Forward(logits, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}
