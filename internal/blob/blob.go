package blob

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("object not found")
	// ErrNoURL is returned by stores that cannot hand out direct links.
	ErrNoURL = errors.New("object has no direct URL")
)

// Object is a stored blob with its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// Store keeps product pictures.
type Store interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) (*Object, error)
	// URL returns a public or presigned link, or ErrNoURL.
	URL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}
