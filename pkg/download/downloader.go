// Package download implements the artifact retrieval pipeline: resolving a
// model reference to metadata, enumerating remote files, and streaming each
// one to disk behind a short-lived transfer authorization with bounded
// retry.
package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/model"
	"github.com/demml/opsml-cli/pkg/util/console"
)

// MetadataFilename is where a copy of the fetched metadata is persisted,
// relative to the write directory. Overwritten on every run.
const MetadataFilename = "model-metadata.json"

const (
	maxDownloadAttempts = 3
	retryDelay          = time.Second
)

// ErrAttemptsExhausted is returned once a file has failed authorization or
// transfer on every attempt.
var ErrAttemptsExhausted = errors.New("download attempts exhausted")

type Downloader struct {
	API      *api.Client
	Client   *http.Client
	WriteDir string

	Onnx                    bool
	Quantize                bool
	Preprocessor            bool
	IgnoreReleaseCandidates bool

	// Progress renders per-file byte bars when set. Leave nil for plain
	// output (tests, non-TTY runs).
	Progress *mpb.Progress

	// Sleep is called between a failed attempt and the next one. Nil means
	// time.Sleep; tests inject a recorder to run without real delays.
	Sleep func(time.Duration)
}

// DownloadMetadata resolves the reference, fetches the model's metadata
// record, and persists a copy to <write_dir>/model-metadata.json. A
// filesystem failure while persisting is fatal even though the fetched
// record itself was fine.
func (d *Downloader) DownloadMetadata(ctx context.Context, ref model.Reference) (*api.ModelMetadata, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	metadata, err := d.API.GetModelMetadata(ctx, metadataRequest(ref, d.IgnoreReleaseCandidates))
	if err != nil {
		return nil, err
	}

	if err := d.saveMetadata(metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// DownloadModel runs the full pipeline: metadata, plan, then every remote
// file under the preprocessor path (when requested) followed by every file
// under the model path. Files transfer strictly one at a time, each with its
// own retry loop; the first unrecoverable failure aborts the run, leaving
// already-written files in place.
func (d *Downloader) DownloadModel(ctx context.Context, ref model.Reference) error {
	metadata, err := d.DownloadMetadata(ctx, ref)
	if err != nil {
		return err
	}

	plan, err := planDownload(metadata, d.Onnx, d.Quantize, d.Preprocessor)
	if err != nil {
		return err
	}

	if plan.PreprocessorURI != "" {
		if err := d.downloadFiles(ctx, plan.PreprocessorURI, plan.RemoteRoot); err != nil {
			return err
		}
	}

	return d.downloadFiles(ctx, plan.ModelURI, plan.RemoteRoot)
}

func metadataRequest(ref model.Reference, ignoreReleaseCandidates bool) api.ModelMetadataRequest {
	request := api.ModelMetadataRequest{IgnoreReleaseCandidates: ignoreReleaseCandidates}
	if ref.Name != "" {
		request.Name = &ref.Name
	}
	if ref.Version != "" {
		request.Version = &ref.Version
	}
	if ref.Repository != "" {
		request.Repository = &ref.Repository
	}
	if ref.UID != "" {
		request.UID = &ref.UID
	}
	return request
}

func (d *Downloader) saveMetadata(metadata *api.ModelMetadata) error {
	path := filepath.Join(d.WriteDir, MetadataFilename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	console.Debugf("wrote metadata to %s", path)
	return nil
}

// downloadFiles enumerates everything under rpath and transfers the files
// sequentially, mapping each one onto the write directory with the remote
// root stripped.
func (d *Downloader) downloadFiles(ctx context.Context, rpath string, root string) error {
	files, err := d.API.ListFiles(ctx, rpath)
	if err != nil {
		return err
	}

	for _, file := range files {
		lpath := localPath(d.WriteDir, root, file)
		console.Infof("Downloading %s from %s", lpath, file)
		if err := d.downloadFile(ctx, file, lpath); err != nil {
			return err
		}
	}
	return nil
}

// downloadFile is the retry orchestrator for one remote file. Every attempt
// requests a fresh authorization; authorizations are never reused because
// they may have expired by the next attempt. Failures are logged per attempt
// and only exhaustion surfaces to the caller.
func (d *Downloader) downloadFile(ctx context.Context, rpath string, lpath string) error {
	for attempt := 1; attempt <= maxDownloadAttempts; attempt++ {
		if attempt > 1 {
			d.pause(retryDelay)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		presigned, err := d.API.PresignDownload(ctx, rpath)
		if err != nil {
			console.Warnf("Attempt %d: failed to authorize download of %s: %s", attempt, rpath, err)
			continue
		}

		if err := d.fetch(ctx, presigned, lpath); err != nil {
			console.Warnf("Attempt %d: failed to download %s: %s", attempt, lpath, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: %s failed after %d attempts", ErrAttemptsExhausted, rpath, maxDownloadAttempts)
}

// fetch streams the authorized remote bytes into lpath. The transfer goes
// through a .partial sibling and renames into place, so an interrupted copy
// never leaves a truncated file under the final name.
func (d *Downloader) fetch(ctx context.Context, presigned *api.PresignedURL, lpath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, presigned.URL, nil)
	if err != nil {
		return err
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("transfer returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(lpath), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(lpath), err)
	}

	partial := lpath + ".partial"
	file, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partial, err)
	}

	body := io.Reader(resp.Body)
	var bar *mpb.Bar
	if d.Progress != nil {
		bar = d.Progress.New(resp.ContentLength,
			mpb.BarStyle(),
			mpb.PrependDecorators(decor.Name(filepath.Base(lpath)+" ")),
			mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
			mpb.BarRemoveOnComplete(),
		)
		proxy := bar.ProxyReader(resp.Body)
		defer proxy.Close()
		body = proxy
	}

	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(partial)
		if bar != nil {
			bar.Abort(true)
		}
		return fmt.Errorf("failed to write %s: %w", lpath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(partial)
		if bar != nil {
			bar.Abort(true)
		}
		return fmt.Errorf("failed to write %s: %w", lpath, err)
	}
	if bar != nil {
		bar.SetTotal(-1, true)
	}

	return os.Rename(partial, lpath)
}

func (d *Downloader) pause(delay time.Duration) {
	if d.Sleep != nil {
		d.Sleep(delay)
		return
	}
	time.Sleep(delay)
}
