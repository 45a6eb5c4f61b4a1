// Package filestore stores uploaded media on the local filesystem under
// Storage.MediaRoot and serves it at Storage.MediaBaseURL.
package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/inksight/backend/core"
)

type localStorage struct {
	root    string
	baseURL string
}

var _ core.FileStorage = (*localStorage)(nil)

func NewLocalStorage(conf *core.Config) *localStorage {
	root := conf.Storage.MediaRoot
	if !filepath.IsAbs(root) {
		root = filepath.Join(conf.WorkDir, root)
	}
	return &localStorage{
		root:    root,
		baseURL: strings.TrimRight(conf.Storage.MediaBaseURL, "/"),
	}
}

func (st *localStorage) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	path := filepath.Join(st.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, content); err != nil {
		return "", errors.Wrap(err, "writing media file")
	}
	return st.baseURL + "/" + name, nil
}
