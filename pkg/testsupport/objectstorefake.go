package testsupport

import (
	"bytes"
	"context"
	"io"

	"github.com/weberc2/fsformat/pkg/objectstore"
)

type Object struct {
	Data     []byte
	Metadata map[string]string
}

type ObjectStoreFake map[[2]string]Object

func (osf ObjectStoreFake) PutObject(
	ctx context.Context,
	bucket string,
	key string,
	data io.ReadSeeker,
	metadata map[string]string,
) error {
	var b bytes.Buffer
	if _, err := io.Copy(&b, data); err != nil {
		return err
	}
	osf[[2]string{bucket, key}] = Object{Data: b.Bytes(), Metadata: metadata}
	return nil
}

func (osf ObjectStoreFake) GetObject(
	ctx context.Context,
	bucket string,
	key string,
) (io.ReadCloser, error) {
	object, found := osf[[2]string{bucket, key}]
	if !found {
		return nil, &objectstore.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	return io.NopCloser(bytes.NewReader(object.Data)), nil
}
