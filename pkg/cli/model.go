package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/demml/opsml-cli/pkg/download"
	opsmlHTTP "github.com/demml/opsml-cli/pkg/http"
	"github.com/demml/opsml-cli/pkg/model"
	"github.com/demml/opsml-cli/pkg/util/console"
)

var downloadModelArgs struct {
	name                    string
	version                 string
	repository              string
	uid                     string
	writeDir                string
	onnx                    bool
	quantize                bool
	preprocessor            bool
	ignoreReleaseCandidates bool
}

func newDownloadModelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download-model",
		Short: "Download a model and its metadata from the model registry",
		Example: `  opsml-cli download-model --name model_name --version 1.0.0 --repository ml
  opsml-cli download-model --uid 123 --onnx --preprocessor`,
		RunE: downloadModel,
		Args: cobra.NoArgs,
	}
	addReferenceFlags(cmd, &downloadModelArgs.name, &downloadModelArgs.version, &downloadModelArgs.repository, &downloadModelArgs.uid)
	cmd.Flags().StringVar(&downloadModelArgs.writeDir, "write-dir", "models", "Directory to write to")
	cmd.Flags().BoolVar(&downloadModelArgs.onnx, "onnx", false, "Download the onnx model instead of the trained model")
	cmd.Flags().BoolVar(&downloadModelArgs.quantize, "quantize", false, "Download the quantized onnx model (huggingface only)")
	cmd.Flags().BoolVar(&downloadModelArgs.preprocessor, "preprocessor", false, "Also download any preprocessors saved with the model")
	cmd.Flags().BoolVar(&downloadModelArgs.ignoreReleaseCandidates, "ignore-release-candidate", false, "Exclude release candidate versions")

	return cmd
}

func downloadModel(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	writeDir, err := resolveWriteDir(downloadModelArgs.writeDir)
	if err != nil {
		return err
	}

	d := &download.Downloader{
		API:                     client,
		Client:                  opsmlHTTP.ProvideHTTPClient(),
		WriteDir:                writeDir,
		Onnx:                    downloadModelArgs.onnx,
		Quantize:                downloadModelArgs.quantize,
		Preprocessor:            downloadModelArgs.preprocessor,
		IgnoreReleaseCandidates: downloadModelArgs.ignoreReleaseCandidates,
	}

	// Byte bars only make sense on an interactive terminal.
	if console.IsTTY(os.Stderr) {
		d.Progress = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithWidth(progressWidth()),
			mpb.WithRefreshRate(180*time.Millisecond),
		)
		defer d.Progress.Wait()
	}

	ref := model.Reference{
		Name:       downloadModelArgs.name,
		Version:    downloadModelArgs.version,
		Repository: downloadModelArgs.repository,
		UID:        downloadModelArgs.uid,
	}
	if err := d.DownloadModel(cmd.Context(), ref); err != nil {
		return fmt.Errorf("%s: %w", aurora.Red("Failed to download model").Bold(), err)
	}

	console.Infof("Downloaded model to %s", aurora.Green(writeDir))
	return nil
}

func progressWidth() int {
	width, err := console.GetWidth()
	if err != nil || width == 0 || width > 80 {
		return 64
	}
	return int(width) - 16
}
