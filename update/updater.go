// Package update provides self-update functionality using GitHub releases.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"
)

const (
	repoOwner = "taskchat-io"
	repoName  = "taskchat"

	defaultAPIBaseURL = "https://api.github.com"
)

// Release describes an available release with the download URL for the
// current platform.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

// githubRelease is the subset of the GitHub releases API response we use.
type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Updater checks for and applies self-updates of the taskchat binary.
type Updater struct {
	currentVersion string
	apiBaseURL     string
	httpClient     *http.Client
}

// New returns an Updater for the given running version.
func New(currentVersion string) *Updater {
	return &Updater{
		currentVersion: currentVersion,
		apiBaseURL:     defaultAPIBaseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Check queries the releases API for a newer version. It returns nil, nil
// when already up to date, and always for dev builds.
func (u *Updater) Check(ctx context.Context) (*Release, error) {
	if u.currentVersion == "dev" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", u.apiBaseURL, repoOwner, repoName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "taskchat/"+u.currentVersion)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	if strings.TrimPrefix(rel.TagName, "v") == strings.TrimPrefix(u.currentVersion, "v") {
		return nil, nil
	}

	dlURL := platformAssetURL(rel)
	if dlURL == "" {
		return nil, fmt.Errorf("no asset found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	return &Release{Version: rel.TagName, URL: dlURL}, nil
}

// platformAssetURL finds the download URL matching the current OS and
// architecture. Release assets name amd64 as x86_64.
func platformAssetURL(rel githubRelease) string {
	goarch := runtime.GOARCH
	if goarch == "amd64" {
		goarch = "x86_64"
	}
	for _, a := range rel.Assets {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, runtime.GOOS) && strings.Contains(name, goarch) {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

// Apply downloads the release binary and replaces the running executable.
func (u *Updater) Apply(ctx context.Context, release *Release) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "taskchat-update-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()    //nolint:errcheck
		os.Remove(tmpPath) //nolint:errcheck
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.URL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download release: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}
	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, exe); err != nil {
		return fmt.Errorf("replace binary: %w", err)
	}
	return nil
}
