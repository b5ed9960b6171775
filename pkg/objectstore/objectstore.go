package objectstore

import (
	"context"
	"fmt"
	"io"
)

// ObjectStore stores published images.
type ObjectStore interface {
	PutObject(
		ctx context.Context,
		bucket string,
		key string,
		data io.ReadSeeker,
		metadata map[string]string,
	) error

	GetObject(
		ctx context.Context,
		bucket string,
		key string,
	) (io.ReadCloser, error)
}

type ObjectNotFoundErr struct {
	Bucket string
	Key    string
}

func (err *ObjectNotFoundErr) Error() string {
	return fmt.Sprintf("object not found: bucket=%s key=%s", err.Bucket, err.Key)
}
