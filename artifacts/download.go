package artifacts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gnosisguild/enclave-aggregator/log"
)

// progressInterval is how often download progress is logged.
var progressInterval = 10 * time.Second

type progressReader struct {
	reader        io.Reader
	total         atomic.Int64
	contentLength int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.total.Add(int64(n))
	return n, err
}

// downloadAndStore downloads fileURL into the cache. A previous partial
// download is resumed with a Range request when the server supports it.
func downloadAndStore(ctx context.Context, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("error parsing the file URL provided: %w", err)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("error creating the base directory: %w", err)
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(expectedHash))
	partialPath := path + ".partial"

	var startByte int64
	if info, err := os.Stat(partialPath); err == nil {
		startByte = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("error creating the file request: %w", err)
	}
	if startByte > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", startByte))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing the request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("error downloading file %s: http status: %d", fileURL, res.StatusCode)
	}

	resume := startByte > 0 && res.StatusCode == http.StatusPartialContent
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_APPEND | os.O_WRONLY
	}
	fd, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("error opening artifact file: %w", err)
	}
	defer fd.Close()

	hasher := sha256.New()
	if resume {
		existing, err := os.Open(partialPath)
		if err != nil {
			return fmt.Errorf("error reading partial download: %w", err)
		}
		_, err = io.Copy(hasher, existing)
		existing.Close()
		if err != nil {
			return fmt.Errorf("error hashing partial download: %w", err)
		}
	} else {
		startByte = 0
	}

	pr := &progressReader{reader: res.Body, contentLength: res.ContentLength + startByte}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.MultiWriter(fd, hasher), pr)
		done <- err
	}()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for copying := true; copying; {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("error copying data to file: %w", err)
			}
			copying = false
		case <-ticker.C:
			total := pr.total.Load() + startByte
			var percentage float64
			if pr.contentLength > 0 {
				percentage = float64(total) / float64(pr.contentLength) * 100
			}
			log.Debugw("download artifacts", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", float64(total)/(1024*1024)),
				"progress", fmt.Sprintf("%.2f%%", percentage))
		}
	}

	if CheckHashes {
		if computed := hasher.Sum(nil); !bytes.Equal(computed, expectedHash) {
			os.Remove(partialPath)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, computed)
		}
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("error closing artifact file: %w", err)
	}
	if err := os.Rename(partialPath, path); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}
	return nil
}
