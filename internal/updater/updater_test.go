package updater

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/require"

	"github.com/marmstr93ng/PostcodeParse/internal/platform/httpx"
)

func releaseServer(t *testing.T, tag string, assets map[string]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/repos/owner/tool/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		type asset struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		}
		resp := struct {
			TagName string  `json:"tag_name"`
			Assets  []asset `json:"assets"`
		}{TagName: tag}
		for name := range assets {
			resp.Assets = append(resp.Assets, asset{
				Name:               name,
				BrowserDownloadURL: "http://" + r.Host + "/download/" + name,
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		body, ok := assets[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckFindsNewerRelease(t *testing.T) {
	srv := releaseServer(t, "v2.1.0", map[string]string{"Setup.exe": "binary"})

	mgr, err := NewManager(srv.URL, "owner/tool", "Setup.exe", t.TempDir(), "2.0.0")
	require.NoError(t, err)

	rel, err := mgr.Check(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rel)
	require.Equal(t, "2.1.0", rel.Version.String())
	require.NotEmpty(t, rel.InstallerURL)
}

func TestCheckCurrentIsLatest(t *testing.T) {
	for _, tag := range []string{"v2.0.0", "2.0.0", "v1.9.9"} {
		srv := releaseServer(t, tag, nil)

		mgr, err := NewManager(srv.URL, "owner/tool", "Setup.exe", t.TempDir(), "2.0.0")
		require.NoError(t, err)

		rel, err := mgr.Check(context.Background())
		require.NoError(t, err)
		require.Nil(t, rel, "tag %s must not offer an update over 2.0.0", tag)
	}
}

func TestCheckWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	mgr, err := NewManager(srv.URL, "owner/tool", "Setup.exe", t.TempDir(), "2.0.0")
	require.NoError(t, err)

	_, err = mgr.Check(context.Background())
	require.Error(t, err)

	var checkErr *CheckError
	require.ErrorAs(t, err, &checkErr)
}

func TestDownloadStreamsInstaller(t *testing.T) {
	srv := releaseServer(t, "v2.1.0", map[string]string{"Setup.exe": "installer-bytes"})
	baseDir := t.TempDir()

	mgr, err := NewManager(srv.URL, "owner/tool", "Setup.exe", baseDir, "2.0.0")
	require.NoError(t, err)

	rel, err := mgr.Check(context.Background())
	require.NoError(t, err)

	path, err := mgr.Download(context.Background(), rel)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(baseDir, "Setup.exe"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "installer-bytes", string(data))
}

func TestDownloadOutlastsClientTimeout(t *testing.T) {
	const chunks = 8

	mux := http.NewServeMux()
	mux.HandleFunc("/download/Setup.exe", func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		require.True(t, ok)
		for i := 0; i < chunks; i++ {
			_, _ = w.Write([]byte("chunk"))
			fl.Flush()
			time.Sleep(100 * time.Millisecond)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	baseDir := t.TempDir()
	mgr, err := NewManager(srv.URL, "owner/tool", "Setup.exe", baseDir, "2.0.0")
	require.NoError(t, err)

	// Shrink the deadlines so the 800ms body above far exceeds the API
	// client's whole-request timeout. The download client must still
	// drain the body to the end.
	mgr.client = httpx.NewClient(200 * time.Millisecond)
	mgr.download = httpx.NewStreamingClient(200 * time.Millisecond)

	rel := &Release{
		Version:      version.Must(version.NewVersion("2.1.0")),
		InstallerURL: srv.URL + "/download/Setup.exe",
	}

	path, err := mgr.Download(context.Background(), rel)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("chunk", chunks), string(data))
}

func TestDownloadMissingAsset(t *testing.T) {
	srv := releaseServer(t, "v2.1.0", map[string]string{"Other.zip": "zip"})

	mgr, err := NewManager(srv.URL, "owner/tool", "Setup.exe", t.TempDir(), "2.0.0")
	require.NoError(t, err)

	rel, err := mgr.Check(context.Background())
	require.NoError(t, err)
	require.Empty(t, rel.InstallerURL)

	_, err = mgr.Download(context.Background(), rel)
	require.Error(t, err)
}
