package builder

import (
	"context"
	"fmt"

	"github.com/weberc2/fsformat/pkg/logger"
	"github.com/weberc2/fsformat/pkg/store"
	. "github.com/weberc2/fsformat/pkg/types"
)

// Result summarizes a serialized image.
type Result struct {
	Path     string         `json:"path"`
	Capacity Block          `json:"capacity"`
	Used     Block          `json:"used"`
	Digest   string         `json:"digest"`
	Counts   map[Role]Block `json:"counts"`
}

// Finish marks every allocated block as used in the bitmap and writes the
// image to `path`. It must be called once, after every entry was added.
func (b *Builder) Finish(ctx context.Context, path string) (Result, error) {
	if b.store.Finalized() {
		return Result{}, fmt.Errorf(
			"finishing image `%s`: %w",
			path,
			store.FinalizedErr,
		)
	}
	b.store.FinalizeBitmap()

	if err := b.store.Serialize(path); err != nil {
		return Result{}, fmt.Errorf("finishing image `%s`: %w", path, err)
	}

	digest, err := b.store.Digest()
	if err != nil {
		return Result{}, fmt.Errorf("finishing image `%s`: %w", path, err)
	}

	result := Result{
		Path:     path,
		Capacity: b.store.Capacity(),
		Used:     b.store.NextFree(),
		Digest:   digest,
		Counts:   b.store.Counts(),
	}

	logger.Get(ctx).Info(
		"wrote image",
		"path", result.Path,
		"capacity", result.Capacity,
		"used", result.Used,
		"counts", result.Counts,
		"digest", result.Digest,
	)
	return result, nil
}
