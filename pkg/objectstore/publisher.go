package objectstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/weberc2/fsformat/pkg/logger"
)

const (
	MetadataDigest = "blake2b"
)

// Publisher uploads finished images to `Bucket`, under `Prefix`.
type Publisher struct {
	ObjectStore ObjectStore
	Bucket      string
	Prefix      string
}

// Key returns the object key an image at `imagePath` is published under.
func (p *Publisher) Key(imagePath string) string {
	return path.Join(p.Prefix, filepath.Base(imagePath))
}

// Publish uploads the image at `imagePath`, recording `digest` in the
// object's metadata, and returns the object's key.
func (p *Publisher) Publish(
	ctx context.Context,
	imagePath string,
	digest string,
) (string, error) {
	key := p.Key(imagePath)
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("publishing image `%s`: %w", imagePath, err)
	}
	defer f.Close()

	if err := p.ObjectStore.PutObject(
		ctx,
		p.Bucket,
		key,
		f,
		map[string]string{MetadataDigest: digest},
	); err != nil {
		return "", fmt.Errorf("publishing image `%s`: %w", imagePath, err)
	}

	logger.Get(ctx).Info(
		"published image",
		"path", imagePath,
		"bucket", p.Bucket,
		"key", key,
	)
	return key, nil
}
