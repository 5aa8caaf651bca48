package download

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/demml/opsml-cli/pkg/api"
)

// ModelRegistrySaveRoot is the storage prefix every model version lives
// under on the server side.
const ModelRegistrySaveRoot = "opsml-root:/OPSML_MODEL_REGISTRY"

var (
	ErrNoOnnxModel      = errors.New("no onnx model uri found but onnx flag set to true")
	ErrNoQuantizedModel = errors.New("no quantize model uri found but quantize flag set to true")
)

// Plan is the outcome of resolving metadata against the caller's variant
// flags: the remote root all local paths are computed against, the single
// model URI to fetch, and optionally a preprocessor URI. Derived once per
// invocation, never stored.
type Plan struct {
	RemoteRoot string
	ModelURI   string

	// PreprocessorURI is empty when no preprocessor was requested or none
	// exists. A model without a preprocessor is not an error.
	PreprocessorURI string
}

func planDownload(metadata *api.ModelMetadata, onnx, quantize, preprocessor bool) (*Plan, error) {
	plan := &Plan{RemoteRoot: remoteRoot(metadata)}

	switch {
	case onnx && quantize:
		if metadata.QuantizedModelURI == nil {
			return nil, ErrNoQuantizedModel
		}
		plan.ModelURI = *metadata.QuantizedModelURI
	case onnx:
		if metadata.OnnxURI == nil {
			return nil, ErrNoOnnxModel
		}
		plan.ModelURI = *metadata.OnnxURI
	default:
		plan.ModelURI = metadata.ModelURI
	}

	if preprocessor {
		plan.PreprocessorURI = preprocessorURI(metadata)
	}

	return plan, nil
}

func remoteRoot(metadata *api.ModelMetadata) string {
	return fmt.Sprintf("%s/%s/%s/v%s",
		ModelRegistrySaveRoot,
		metadata.ModelRepository,
		metadata.ModelName,
		metadata.ModelVersion,
	)
}

// preprocessorURI picks the first preprocessor-family artifact present, in
// fixed priority order. Empty when the model has none.
func preprocessorURI(metadata *api.ModelMetadata) string {
	for _, uri := range []*string{
		metadata.PreprocessorURI,
		metadata.TokenizerURI,
		metadata.FeatureExtractorURI,
	} {
		if uri != nil {
			return *uri
		}
	}
	return ""
}

// localPath maps a remote file path onto the write directory: the remote
// root prefix is stripped and the remainder joined onto writeDir, mirroring
// the remote layout. A path the server hands back without the root prefix is
// taken to be relative to the root already.
func localPath(writeDir, root, rpath string) string {
	rel := strings.TrimPrefix(rpath, root)
	rel = strings.TrimPrefix(rel, "/")
	return filepath.Join(writeDir, filepath.FromSlash(rel))
}
