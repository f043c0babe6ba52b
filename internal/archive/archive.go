// Package archive keeps a copy of every uploaded statement before it is processed.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/jask/expensetracker/internal/config"
)

// Archiver stores raw statement bytes and returns where they went.
type Archiver interface {
	Archive(ctx context.Context, filename string, data []byte) (string, error)
}

// New picks the archiver configured in cfg. Bucket wins over Dir; neither yields Nop. The
// returned close func releases any client and is never nil.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archiver, func() error, error) {
	switch {
	case cfg.Bucket != "":
		g, err := NewGCS(ctx, cfg.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case cfg.Dir != "":
		return Dir{Root: cfg.Dir}, func() error { return nil }, nil
	default:
		return Nop{}, func() error { return nil }, nil
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Archive(context.Context, string, []byte) (string, error) { return "", nil }

// Dir writes statements under Root.
type Dir struct {
	Root string
}

func (d Dir) Archive(_ context.Context, filename string, data []byte) (string, error) {
	rel := filepath.FromSlash(objectName(filename, time.Now()))
	dst := filepath.Join(d.Root, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("write archive %s: %w", dst, err)
	}
	return dst, nil
}

// GCS writes statements to a Cloud Storage bucket using Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	name := objectName(filename, time.Now())
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType(filename)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy statement to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, name), nil
}

func (g *GCS) Close() error { return g.client.Close() }

// objectName returns statements/YYYY/MM/DD/<uuid>-<base name>.
func objectName(filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "statement"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	return path.Join("statements", now.UTC().Format("2006/01/02"), uuid.NewString()+"-"+base)
}

func contentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}
