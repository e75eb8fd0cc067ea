package importer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fetch copies rawURL to dest. file:// URLs and bare paths are copied from
// disk; http(s) URLs are downloaded with retries.
func fetch(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		return downloadFile(ctx, rawURL, dest)
	case "file":
		return copyFile(u.Path, dest)
	case "":
		return copyFile(rawURL, dest)
	}
	return fmt.Errorf("unsupported url scheme %q", u.Scheme)
}

// downloadFile downloads url to dest, retrying three times with
// exponential backoff.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			continue
		}

		err = writeFrom(dest, resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("download %s failed after 3 attempts: %w", url, lastErr)
}

func copyFile(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()
	return writeFrom(dest, f)
}

func writeFrom(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// unzipFile extracts the regular files of a ZIP archive into destDir,
// flattening paths, and returns the extracted paths.
func unzipFile(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeFrom(destPath, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		paths = append(paths, destPath)
	}
	return paths, nil
}

// largestCSV returns the biggest .csv among paths. Directory exports ship
// the data file next to small layout and notes files.
func largestCSV(paths []string) (string, error) {
	best, size := "", int64(-1)
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".csv") {
			continue
		}
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		if st.Size() > size {
			best, size = p, st.Size()
		}
	}
	if best == "" {
		return "", fmt.Errorf("no csv file in archive")
	}
	return best, nil
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
