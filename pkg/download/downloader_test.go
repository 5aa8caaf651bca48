package download

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/demml/opsml-cli/pkg/api"
	"github.com/demml/opsml-cli/pkg/model"
)

func TestDownloadFileRetriesAuthorization(t *testing.T) {
	presignCalls := 0
	fetchCalls := 0

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc(api.PresignedPath, func(w http.ResponseWriter, r *http.Request) {
		presignCalls++
		if presignCalls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(api.PresignedURL{URL: server.URL + "/blob"})
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		fetchCalls++
		w.Write([]byte("test"))
	})

	var sleeps []time.Duration
	lpath := filepath.Join(t.TempDir(), "models.json")
	d := &Downloader{
		API:   api.NewClient(server.URL, http.DefaultClient),
		Sleep: func(delay time.Duration) { sleeps = append(sleeps, delay) },
	}

	err := d.downloadFile(context.Background(), "models.json", lpath)
	require.NoError(t, err)
	require.Equal(t, 3, presignCalls)
	require.Equal(t, 1, fetchCalls)
	require.Equal(t, []time.Duration{retryDelay, retryDelay}, sleeps)

	content, err := os.ReadFile(lpath)
	require.NoError(t, err)
	require.Equal(t, "test", string(content))
}

func TestDownloadFileExhaustsAttempts(t *testing.T) {
	presignCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presignCalls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var sleeps []time.Duration
	d := &Downloader{
		API:   api.NewClient(server.URL, http.DefaultClient),
		Sleep: func(delay time.Duration) { sleeps = append(sleeps, delay) },
	}

	err := d.downloadFile(context.Background(), "models.json", filepath.Join(t.TempDir(), "models.json"))
	require.ErrorIs(t, err, ErrAttemptsExhausted)
	require.Equal(t, 3, presignCalls)
	// The delay sits between attempts, never after the final one.
	require.Len(t, sleeps, 2)
}

func TestDownloadFileRetriesInterruptedTransfer(t *testing.T) {
	fetchCalls := 0

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc(api.PresignedPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.PresignedURL{URL: server.URL + "/blob"})
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		fetchCalls++
		if fetchCalls < 3 {
			// Advertise more bytes than we send so the client sees a
			// truncated stream.
			w.Header().Set("Content-Length", "100")
			w.Write([]byte("par"))
			return
		}
		w.Write([]byte("test"))
	})

	lpath := filepath.Join(t.TempDir(), "weights", "part1.bin")
	d := &Downloader{
		API:   api.NewClient(server.URL, http.DefaultClient),
		Sleep: func(time.Duration) {},
	}

	err := d.downloadFile(context.Background(), "weights/part1.bin", lpath)
	require.NoError(t, err)
	require.Equal(t, 3, fetchCalls)

	content, err := os.ReadFile(lpath)
	require.NoError(t, err)
	require.Equal(t, "test", string(content))

	// Failed attempts must not leave partial files behind.
	_, err = os.Stat(lpath + ".partial")
	require.True(t, os.IsNotExist(err))
}

func TestDownloadFileCancelledBetweenAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	d := &Downloader{
		API:   api.NewClient(server.URL, http.DefaultClient),
		Sleep: func(time.Duration) { cancel() },
	}

	err := d.downloadFile(ctx, "models.json", filepath.Join(t.TempDir(), "models.json"))
	require.ErrorIs(t, err, context.Canceled)
}

// testRegistry is a fake tracking server covering the whole download
// protocol: metadata, listing, presigning, and the raw blob transfer.
type testRegistry struct {
	t        *testing.T
	metadata api.ModelMetadata
	files    map[string][]string
	blobs    map[string]string

	server      *httptest.Server
	listedPaths []string
}

func newTestRegistry(t *testing.T, metadata api.ModelMetadata) *testRegistry {
	registry := &testRegistry{
		t:        t,
		metadata: metadata,
		files:    map[string][]string{},
		blobs:    map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(api.ModelMetadataPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(registry.metadata)
	})
	mux.HandleFunc(api.ListFilesPath, func(w http.ResponseWriter, r *http.Request) {
		rpath := r.URL.Query().Get("path")
		registry.listedPaths = append(registry.listedPaths, rpath)
		json.NewEncoder(w).Encode(api.ListFileResponse{Files: registry.files[rpath]})
	})
	mux.HandleFunc(api.PresignedPath, func(w http.ResponseWriter, r *http.Request) {
		rpath := r.URL.Query().Get("path")
		json.NewEncoder(w).Encode(api.PresignedURL{
			URL: registry.server.URL + "/blob?path=" + rpath,
		})
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		content, ok := registry.blobs[r.URL.Query().Get("path")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(content))
	})

	registry.server = httptest.NewServer(mux)
	t.Cleanup(registry.server.Close)
	return registry
}

func TestDownloadModelEndToEnd(t *testing.T) {
	root := ModelRegistrySaveRoot + "/devops-ml/linear-reg-model/v1.1.0"
	metadata := api.ModelMetadata{
		ModelName:       "linear-reg-model",
		ModelRepository: "devops-ml",
		ModelVersion:    "1.1.0",
		ModelURI:        root + "/model",
		PreprocessorURI: strPtr(root + "/preprocessor"),
	}

	registry := newTestRegistry(t, metadata)
	registry.files[root+"/model"] = []string{root + "/model/models.json"}
	registry.files[root+"/preprocessor"] = []string{root + "/preprocessor/preprocessor.json"}
	registry.blobs[root+"/model/models.json"] = "test"
	registry.blobs[root+"/preprocessor/preprocessor.json"] = "{}"

	writeDir := t.TempDir()
	d := &Downloader{
		API:          api.NewClient(registry.server.URL, http.DefaultClient),
		WriteDir:     writeDir,
		Preprocessor: true,
		Sleep:        func(time.Duration) {},
	}

	ref := model.Reference{Name: "linear-reg-model", Repository: "devops-ml", Version: "1.1.0"}
	require.NoError(t, d.DownloadModel(context.Background(), ref))

	content, err := os.ReadFile(filepath.Join(writeDir, "model", "models.json"))
	require.NoError(t, err)
	require.Equal(t, "test", string(content))

	content, err = os.ReadFile(filepath.Join(writeDir, "preprocessor", "preprocessor.json"))
	require.NoError(t, err)
	require.Equal(t, "{}", string(content))

	// Preprocessor files transfer before model files.
	require.Equal(t, []string{root + "/preprocessor", root + "/model"}, registry.listedPaths)

	saved := api.ModelMetadata{}
	data, err := os.ReadFile(filepath.Join(writeDir, MetadataFilename))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Equal(t, metadata.ModelURI, saved.ModelURI)
}

func TestDownloadModelWithRelativePaths(t *testing.T) {
	// Some servers hand back storage paths that are already relative to the
	// model's remote root.
	metadata := *testMetadata()
	metadata.ModelURI = "models.json"

	registry := newTestRegistry(t, metadata)
	registry.files["models.json"] = []string{"models.json"}
	registry.blobs["models.json"] = "test"

	writeDir := t.TempDir()
	d := &Downloader{
		API:      api.NewClient(registry.server.URL, http.DefaultClient),
		WriteDir: writeDir,
	}

	require.NoError(t, d.DownloadModel(context.Background(), model.Reference{UID: "uid"}))

	content, err := os.ReadFile(filepath.Join(writeDir, "models.json"))
	require.NoError(t, err)
	require.Equal(t, "test", string(content))
}

func TestDownloadModelMissingVariantIsFatal(t *testing.T) {
	registry := newTestRegistry(t, *testMetadata())

	d := &Downloader{
		API:      api.NewClient(registry.server.URL, http.DefaultClient),
		WriteDir: t.TempDir(),
		Onnx:     true,
	}

	err := d.DownloadModel(context.Background(), model.Reference{UID: "uid"})
	require.ErrorIs(t, err, ErrNoOnnxModel)
	require.Empty(t, registry.listedPaths)
}

func TestDownloadMetadataRejectsInvalidReference(t *testing.T) {
	d := &Downloader{WriteDir: t.TempDir()}
	_, err := d.DownloadMetadata(context.Background(), model.Reference{})
	require.ErrorIs(t, err, model.ErrInvalidReference)
}

func TestDownloadMetadataIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t, *testMetadata())

	writeDir := filepath.Join(t.TempDir(), "nested", "models")
	d := &Downloader{
		API:      api.NewClient(registry.server.URL, http.DefaultClient),
		WriteDir: writeDir,
	}

	ref := model.Reference{UID: "uid"}
	_, err := d.DownloadMetadata(context.Background(), ref)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(writeDir, MetadataFilename))
	require.NoError(t, err)

	_, err = d.DownloadMetadata(context.Background(), ref)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(writeDir, MetadataFilename))
	require.NoError(t, err)

	require.Equal(t, first, second)
}
