package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
)

// localStorage writes files under MediaRoot and returns URLs under
// MediaBaseURL.
type localStorage struct {
	root    string
	baseURL string
}

var _ Storage = (*localStorage)(nil)

func NewLocalStorage(conf *core.Config) (*localStorage, error) {
	root := conf.Storage.MediaRoot
	if !filepath.IsAbs(root) {
		root = filepath.Join(conf.WorkDir, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &localStorage{
		root:    root,
		baseURL: strings.TrimSuffix(conf.Storage.MediaBaseURL, "/"),
	}, nil
}

func (s *localStorage) Store(ctx context.Context, key string, r io.Reader) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(err, "writing media file")
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "closing media file")
	}
	return s.baseURL + "/" + key, nil
}

func (s *localStorage) Remove(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(ref, s.baseURL+"/")
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing media file")
	}
	return nil
}
