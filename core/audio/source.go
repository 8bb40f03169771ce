package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNoSource = errors.New("no media source")

// Resolver turns a media reference into a readable local file.
//
// Relative paths are looked up under MusicDir. Absolute paths and file://
// URIs are tried as-is first and then under MusicDir, so catalog entries like
// "/music/a.wav" work without a real /music directory. http(s):// URLs are
// downloaded to a temp file.
type Resolver struct {
	MusicDir   string
	HTTPClient *http.Client
}

func NewResolver(musicDir string) *Resolver {
	return &Resolver{
		MusicDir:   musicDir,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Resolve returns the local path for ref and a cleanup func that must be
// called once the file is no longer needed.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, func(), error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", func() {}, ErrNoSource
	}

	parsed, err := url.Parse(ref)
	if err == nil {
		switch parsed.Scheme {
		case "http", "https":
			return r.download(ctx, parsed.String())
		case "file":
			return r.local(parsed.Path)
		}
	}

	return r.local(ref)
}

func (r *Resolver) local(path string) (string, func(), error) {
	candidates := []string{path}
	if r != nil && r.MusicDir != "" && !filepath.IsAbs(path) {
		candidates = []string{filepath.Join(r.MusicDir, path)}
	} else if r != nil && r.MusicDir != "" {
		candidates = append(candidates, filepath.Join(r.MusicDir, strings.TrimPrefix(path, "/")))
		candidates = append(candidates, filepath.Join(r.MusicDir, filepath.Base(path)))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, func() {}, nil
		}
	}
	return "", func() {}, fmt.Errorf("media source %q not found: %w", path, os.ErrNotExist)
}

func (r *Resolver) download(ctx context.Context, rawURL string) (string, func(), error) {
	client := http.DefaultClient
	if r != nil && r.HTTPClient != nil {
		client = r.HTTPClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", func() {}, fmt.Errorf("error creating HTTP request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", func() {}, fmt.Errorf("error fetching media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", func() {}, fmt.Errorf("non-OK HTTP status fetching media: %s", resp.Status)
	}

	file, err := os.CreateTemp("", "toolpanel-media-*"+filepath.Ext(req.URL.Path))
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp media file: %w", err)
	}
	cleanup := func() { _ = os.Remove(file.Name()) }

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("failed to store media: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to store media: %w", err)
	}

	return file.Name(), cleanup, nil
}
