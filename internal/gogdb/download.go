package gogdb

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// DownloadBackup streams a backup archive to destDir, showing byte progress,
// and returns the downloaded file path. An existing file of the same name is
// reused rather than re-downloaded.
func (c *Client) DownloadBackup(ctx context.Context, archiveURL, destDir string) (string, error) {
	name := filepath.Base(archiveURL)
	if !archivePattern.MatchString(name) {
		return "", fmt.Errorf("unexpected archive name %q", name)
	}
	target := filepath.Join(destDir, name)

	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		c.logger.Info("archive already downloaded", "path", target)
		return target, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create dump directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.downloader.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", archiveURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", archiveURL, resp.StatusCode)
	}

	// Download to a temp name so an interrupted transfer is never mistaken
	// for a complete archive.
	partial := target + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", partial, err)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, "downloading "+name)
	_, err = io.Copy(io.MultiWriter(file, bar), resp.Body)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("write archive: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("close archive: %w", closeErr)
	}

	if err := os.Rename(partial, target); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	c.logger.Info("archive downloaded", "path", target)
	return target, nil
}

// ExtractBackup unpacks a tar.xz archive under destDir and returns the
// extraction root, named after the archive stem.
func (c *Client) ExtractBackup(archivePath, destDir string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(archivePath), ".tar.xz")
	root := filepath.Join(destDir, stem)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create extraction root: %w", err)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return "", fmt.Errorf("open xz stream: %w", err)
	}

	reader := tar.NewReader(xzReader)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read tar entry: %w", err)
		}
		if err := extractEntry(root, header, reader); err != nil {
			return "", err
		}
	}

	c.logger.Info("archive extracted", "root", root)
	return root, nil
}

func extractEntry(root string, header *tar.Header, reader io.Reader) error {
	cleaned := filepath.Clean(header.Name)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return nil
	}
	target := filepath.Join(root, cleaned)

	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", target, err)
		}
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create parent for %s: %w", target, err)
		}
		file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}
		if _, err := io.Copy(file, reader); err != nil {
			file.Close()
			return fmt.Errorf("write %s: %w", target, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close %s: %w", target, err)
		}
	}
	return nil
}
