package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

var ErrInvalidURL = errors.New("invalid image url")

// FileNameFromURL maps a public object URL to the object path inside bucket.
//
// Firebase download URLs carry the percent-encoded path after an "/o/"
// segment, for example
// https://firebasestorage.googleapis.com/v0/b/<bucket>/o/users%2Fu1%2Fa.png?alt=media.
// Other URLs use their path, minus a leading bucket segment.
func FileNameFromURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	escaped := u.EscapedPath()
	var name string
	if i := strings.Index(escaped, "/o/"); i != -1 {
		name, err = url.PathUnescape(escaped[i+len("/o/"):])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
	} else {
		name = strings.TrimPrefix(u.Path, "/")
		if bucket != "" {
			name = strings.TrimPrefix(name, bucket+"/")
		}
	}

	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return "", ErrInvalidURL
	}
	return name, nil
}

// Bucket stores uploaded images below a root directory.
type Bucket struct {
	fs     afero.Fs
	name   string
	logger *slog.Logger
}

// NewBucket roots the bucket at dir on the local filesystem.
func NewBucket(dir, name string, logger *slog.Logger) (*Bucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return NewBucketFs(afero.NewBasePathFs(afero.NewOsFs(), dir), name, logger), nil
}

func NewBucketFs(fs afero.Fs, name string, logger *slog.Logger) *Bucket {
	return &Bucket{fs: fs, name: name, logger: logger}
}

func (b *Bucket) Fs() afero.Fs { return b.fs }

// DeleteImageByURL removes the object addressed by imageURL. It reports
// whether an object was removed; a missing object is not an error.
func (b *Bucket) DeleteImageByURL(ctx context.Context, imageURL string) (bool, error) {
	name, err := FileNameFromURL(imageURL, b.name)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists, err := afero.Exists(b.fs, name)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	if !exists {
		b.logger.Debug("image already absent", "object", name)
		return false, nil
	}

	if err := b.fs.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove %s: %w", name, err)
	}

	b.logger.Info("image deleted", "object", name)
	return true, nil
}
