package objectstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
)

const (
	MetadataEncoding = "encoding"
	EncodingGzip     = "gzip"
)

// GzipObjectStore compresses objects on the way in and decompresses them on
// the way out.
type GzipObjectStore struct {
	ObjectStore
}

func (os *GzipObjectStore) PutObject(
	ctx context.Context,
	bucket string,
	key string,
	data io.ReadSeeker,
	metadata map[string]string,
) error {
	var b bytes.Buffer
	w, err := gzip.NewWriterLevel(&b, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := io.Copy(w, data); err != nil {
		return fmt.Errorf("compressing data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	withEncoding := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		withEncoding[k] = v
	}
	withEncoding[MetadataEncoding] = EncodingGzip

	return os.ObjectStore.PutObject(
		ctx,
		bucket,
		key,
		bytes.NewReader(b.Bytes()),
		withEncoding,
	)
}

type GzipReadCloser struct {
	io.ReadCloser
	r *gzip.Reader
}

func (grc *GzipReadCloser) Read(data []byte) (int, error) {
	return grc.r.Read(data)
}

func (grc *GzipReadCloser) Close() error {
	if err := grc.ReadCloser.Close(); err != nil {
		return err
	}
	return grc.r.Close()
}

func (os *GzipObjectStore) GetObject(
	ctx context.Context,
	bucket string,
	key string,
) (io.ReadCloser, error) {
	body, err := os.ObjectStore.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("getting object from storage: %w", err)
	}
	r, err := gzip.NewReader(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	return &GzipReadCloser{ReadCloser: body, r: r}, nil
}
