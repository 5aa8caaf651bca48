package cli

import (
	"fmt"
	"path/filepath"

	"github.com/logrusorgru/aurora"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/demml/opsml-cli/pkg/download"
	"github.com/demml/opsml-cli/pkg/model"
	"github.com/demml/opsml-cli/pkg/util/console"
	"github.com/demml/opsml-cli/pkg/util/files"
)

var downloadMetadataArgs struct {
	name                    string
	version                 string
	repository              string
	uid                     string
	writeDir                string
	ignoreReleaseCandidates bool
}

func newDownloadModelMetadataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "download-model-metadata",
		Short:   "Download model metadata from the model registry",
		Example: `  opsml-cli download-model-metadata --name model_name --version 1.0.0 --repository ml`,
		RunE:    downloadModelMetadata,
		Args:    cobra.NoArgs,
	}
	addReferenceFlags(cmd, &downloadMetadataArgs.name, &downloadMetadataArgs.version, &downloadMetadataArgs.repository, &downloadMetadataArgs.uid)
	cmd.Flags().StringVar(&downloadMetadataArgs.writeDir, "write-dir", "models", "Directory to write to")
	cmd.Flags().BoolVar(&downloadMetadataArgs.ignoreReleaseCandidates, "ignore-release-candidate", false, "Exclude release candidate versions")

	return cmd
}

func downloadModelMetadata(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	writeDir, err := resolveWriteDir(downloadMetadataArgs.writeDir)
	if err != nil {
		return err
	}

	d := &download.Downloader{
		API:                     client,
		WriteDir:                writeDir,
		IgnoreReleaseCandidates: downloadMetadataArgs.ignoreReleaseCandidates,
	}

	ref := model.Reference{
		Name:       downloadMetadataArgs.name,
		Version:    downloadMetadataArgs.version,
		Repository: downloadMetadataArgs.repository,
		UID:        downloadMetadataArgs.uid,
	}
	metadata, err := d.DownloadMetadata(cmd.Context(), ref)
	if err != nil {
		return fmt.Errorf("%s: %w", aurora.Red("Failed to download model metadata").Bold(), err)
	}

	console.Infof("Wrote metadata for %s to %s",
		aurora.Green(metadata.ModelName),
		filepath.Join(writeDir, download.MetadataFilename))
	return nil
}

func addReferenceFlags(cmd *cobra.Command, name, version, repository, uid *string) {
	cmd.Flags().StringVar(name, "name", "", "Name given to the card")
	cmd.Flags().StringVar(version, "version", "", "Card version")
	cmd.Flags().StringVar(repository, "repository", "", "Card repository")
	cmd.Flags().StringVar(uid, "uid", "", "Card uid")
}

// resolveWriteDir expands and absolutizes the target directory, rejecting a
// path that exists but is not a directory.
func resolveWriteDir(writeDir string) (string, error) {
	writeDir, err := homedir.Expand(writeDir)
	if err != nil {
		return "", err
	}
	writeDir, err = filepath.Abs(writeDir)
	if err != nil {
		return "", err
	}

	exists, err := files.FileExists(writeDir)
	if err != nil {
		return "", err
	}
	if exists {
		isDir, err := files.IsDir(writeDir)
		if err != nil {
			return "", err
		}
		if !isDir {
			return "", fmt.Errorf("%s exists and is not a directory", writeDir)
		}
	}
	return writeDir, nil
}
