package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/httpjson"
	"go.uber.org/zap"
)

const (
	DefaultDownloadPath = "nvidia_driver.exe"
	chunkSize           = 8 << 10
)

type Artifact struct {
	Path string
	Size int64
}

type Fetcher struct {
	http   *httpjson.Client
	logger *zap.Logger
}

func NewFetcher(hc *httpjson.Client, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{http: hc, logger: logger}
}

// Download streams rawURL into dest. The body goes to a temp file in the same
// directory which is only renamed onto dest once it is complete and closed, so
// dest never holds a partial installer.
func (f *Fetcher) Download(ctx context.Context, rawURL, dest string) (Artifact, error) {
	body, length, err := f.http.Stream(ctx, rawURL)
	if err != nil {
		return Artifact{}, failure.Network("download driver", err)
	}
	defer body.Close()

	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return Artifact{}, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	f.logger.Info("downloading driver",
		zap.String("url", rawURL),
		zap.Int64("content_length", length),
		zap.String("dest", dest))

	// wrappers hide ReaderFrom/WriterTo so the copy really goes chunk by chunk
	buf := make([]byte, chunkSize)
	n, err := io.CopyBuffer(struct{ io.Writer }{tmp}, struct{ io.Reader }{body}, buf)
	if err != nil {
		if ctx.Err() != nil {
			return Artifact{}, ctx.Err()
		}
		return Artifact{}, failure.Network("download driver", err)
	}
	if length >= 0 && n != length {
		return Artifact{}, failure.Network("download driver", fmt.Errorf("short body: got %d of %d bytes", n, length))
	}

	if err := tmp.Sync(); err != nil {
		return Artifact{}, fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return Artifact{}, fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return Artifact{}, fmt.Errorf("move installer into place: %w", err)
	}
	committed = true

	return Artifact{Path: dest, Size: n}, nil
}
