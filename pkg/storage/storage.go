// Package storage stores the escrow's documents (validator script, encrypted key, receipts) as
// keyed objects in an S3 bucket or, for the "standalone" bucket, the local filesystem.
package storage

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the key does not exist.
var ErrNotFound = errors.New("Not found")

// Storage is a bucket style object store.
type Storage interface {
	Write(ctx context.Context, key string, body []byte, options *Options) error
	Read(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error

	// List returns the keys that start with prefix, at any depth, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Options apply to a write.
type Options struct {
	// TTL is the number of seconds until the object expires. Zero never expires. Only S3
	// honours it.
	TTL int64

	// Mode and DirMode are the file and directory modes of filesystem objects.
	Mode    os.FileMode
	DirMode os.FileMode
}

// NewOptions returns the default write options.
func NewOptions() Options {
	return Options{
		Mode:    0644,
		DirMode: 0755,
	}
}

// CreateStorage returns filesystem storage for the standalone bucket and S3 storage otherwise.
func CreateStorage(config Config) Storage {
	if strings.ToLower(config.Bucket) == StandaloneBucket {
		return NewFilesystemStorage(config)
	}
	return NewS3Storage(config)
}

// IsNotFound returns true if err, or the error it wraps, is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
