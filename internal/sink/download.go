package sink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"svg_exporter/internal/config"
	"svg_exporter/internal/model"

	"github.com/gofrs/flock"
	"github.com/h2non/filetype"
)

var ErrTypeMismatch = errors.New("asset bytes do not match declared type")

// DownloadSink saves assets as image.<ext> in an output directory.
type DownloadSink struct {
	dir string
}

func NewDownloadSink(cfg *config.Config) *DownloadSink {
	dir := config.DefaultOutputDirName
	if cfg != nil && cfg.OutputDir != "" {
		dir = cfg.OutputDir
	}
	return &DownloadSink{dir: dir}
}

// Dir returns the output directory.
func (s *DownloadSink) Dir() string {
	return s.dir
}

// Save writes asset to <dir>/image.<ext> under a file lock and returns the path.
// The file is replaced atomically, so a concurrent save never leaves a mix of two assets.
func (s *DownloadSink) Save(ctx context.Context, asset model.RenderedAsset) (string, error) {
	if len(asset.Data) == 0 {
		return "", errors.New("empty asset")
	}
	if err := verifyContentType(asset); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, config.OutputDirPermission); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(s.dir, asset.FileName())
	fileLock := flock.New(path + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, config.LockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, config.LockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	if !locked {
		return "", fmt.Errorf("could not acquire lock on %s", path)
	}
	defer fileLock.Unlock() //nolint:errcheck

	if err := atomicWriteFile(path, asset.Data); err != nil {
		return "", err
	}

	log.Printf("画像を保存しました: %s (%s, %d bytes)", path, asset.MIMEType, len(asset.Data))
	return path, nil
}

// verifyContentType checks raster bytes against the declared MIME type.
// Vector assets are markup text and are written unchanged.
func verifyContentType(asset model.RenderedAsset) error {
	if asset.IsVector() {
		if asset.MIMEType != model.FormatSVG.MIMEType() {
			return fmt.Errorf("%w: vector asset tagged %q", ErrTypeMismatch, asset.MIMEType)
		}
		return nil
	}

	kind, err := filetype.Match(asset.Data)
	if err != nil {
		return fmt.Errorf("failed to detect asset type: %w", err)
	}
	if kind.MIME.Value != asset.MIMEType {
		return fmt.Errorf("%w: declared %q, detected %q", ErrTypeMismatch, asset.MIMEType, kind.MIME.Value)
	}
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	// ターゲットファイルと同じディレクトリに一時ファイルを作成
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp_*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) //nolint:errcheck
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, config.DataFilePermission); err != nil {
		log.Printf("failed to chmod temp file: %v", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
