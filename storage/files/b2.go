package files

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
)

// b2Storage uploads files to a Backblaze B2 bucket and returns the
// bucket's public download URLs.
type b2Storage struct {
	bucket *b2.Bucket
}

var _ Storage = (*b2Storage)(nil)

func NewB2Storage(ctx context.Context, conf *core.Config) (*b2Storage, error) {
	client, err := b2.NewClient(ctx, conf.Storage.B2KeyID, conf.Storage.B2AppKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, conf.Storage.B2Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &b2Storage{bucket: bucket}, nil
}

func (s *b2Storage) Store(ctx context.Context, key string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", errors.Wrap(err, "writing b2 object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "closing b2 writer")
	}
	return fmt.Sprintf("%s/file/%s/%s", s.bucket.BaseURL(), s.bucket.Name(), key), nil
}

func (s *b2Storage) Remove(ctx context.Context, ref string) error {
	prefix := fmt.Sprintf("%s/file/%s/", s.bucket.BaseURL(), s.bucket.Name())
	key := strings.TrimPrefix(ref, prefix)
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return errors.Wrap(err, "deleting b2 object")
	}
	return nil
}
