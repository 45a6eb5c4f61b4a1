package core

import (
	"context"
	"io"
)

// FileStorage is any service that can persist uploaded files and hand back
// a publicly reachable URL. The S3/object-store mechanics live behind it.
type FileStorage interface {
	// Save stores the content under the given name (a relative path) and
	// returns the URL the stored file is served from.
	Save(ctx context.Context, name string, content io.Reader) (string, error)
}
