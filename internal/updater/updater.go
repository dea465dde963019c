// Package updater checks GitHub releases for a newer installer and
// downloads it. Every failure here is non-fatal to the main flow: an
// extraction should never be blocked by the release check.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/marmstr93ng/PostcodeParse/internal/platform/httpx"
)

// CheckError wraps any failure in the update flow so callers can report
// and continue.
type CheckError struct {
	Op  string
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("update %s: %v", e.Op, e.Err)
}

func (e *CheckError) Unwrap() error { return e.Err }

type release struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Release describes an available update.
type Release struct {
	Version      *version.Version
	InstallerURL string
}

// Manager talks to the GitHub releases API for one repository.
type Manager struct {
	client    *httpx.Client
	download  *httpx.Client
	apiBase   string
	repo      string
	installer string
	baseDir   string
	current   *version.Version
}

func NewManager(apiBase, repo, installer, baseDir, currentVersion string) (*Manager, error) {
	cur, err := version.NewVersion(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("updater: parse current version %q: %w", currentVersion, err)
	}

	return &Manager{
		client: httpx.NewClient(10 * time.Second),
		// Installer transfers take as long as the payload demands, so
		// only connect and header time are bounded here.
		download:  httpx.NewStreamingClient(10 * time.Second),
		apiBase:   apiBase,
		repo:      repo,
		installer: installer,
		baseDir:   baseDir,
		current:   cur,
	}, nil
}

// Check fetches the latest release and reports whether it is newer than
// the running version. When no newer release exists the returned Release
// is nil.
func (m *Manager) Check(ctx context.Context) (*Release, error) {
	rel, err := m.latestRelease(ctx)
	if err != nil {
		return nil, &CheckError{Op: "check", Err: err}
	}

	latest, err := version.NewVersion(rel.TagName)
	if err != nil {
		return nil, &CheckError{Op: "check", Err: fmt.Errorf("parse tag %q: %w", rel.TagName, err)}
	}

	if !latest.GreaterThan(m.current) {
		return nil, nil
	}

	out := &Release{Version: latest}
	for _, a := range rel.Assets {
		if a.Name == m.installer {
			out.InstallerURL = a.BrowserDownloadURL
			break
		}
	}

	return out, nil
}

// Download streams the release installer into the base directory and
// returns its path.
func (m *Manager) Download(ctx context.Context, rel *Release) (string, error) {
	if rel == nil || rel.InstallerURL == "" {
		return "", &CheckError{Op: "download", Err: fmt.Errorf("installer %q not found in release assets", m.installer)}
	}

	resp, err := m.download.DoWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rel.InstallerURL, nil)
	})
	if err != nil {
		return "", &CheckError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	path := filepath.Join(m.baseDir, m.installer)
	f, err := os.Create(path)
	if err != nil {
		return "", &CheckError{Op: "download", Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", &CheckError{Op: "download", Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &CheckError{Op: "download", Err: err}
	}

	return path, nil
}

func (m *Manager) latestRelease(ctx context.Context) (*release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", m.apiBase, m.repo)

	resp, err := m.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	return &rel, nil
}
