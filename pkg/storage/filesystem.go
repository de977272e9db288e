package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FilesystemStorage implements the Storage interface for interacting with
// the local filesystem.
type FilesystemStorage struct {
	Config Config
}

// NewFilesystemStorage implements the Storage interface for simple S3 like
// file system interactions.
func NewFilesystemStorage(config Config) FilesystemStorage {
	return FilesystemStorage{
		Config: config,
	}
}

// Write writes the data to the file for key, creating directories as needed.
func (f FilesystemStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	opts := NewOptions()
	if options != nil {
		if options.Mode != 0 {
			opts.Mode = options.Mode
		}
		if options.DirMode != 0 {
			opts.DirMode = options.DirMode
		}
	}

	filename := f.buildPath(key)
	if err := os.MkdirAll(filepath.Dir(filename), opts.DirMode); err != nil {
		return errors.Wrap(err, "create directory")
	}

	// Write to a temporary file and rename so readers never see a partial object.
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, body, opts.Mode); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}

	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", key)
	}

	return nil
}

// Read reads the data from a file on the local filesystem.
func (f FilesystemStorage) Read(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(f.buildPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}

	return b, nil
}

// Remove removes the file for key.
func (f FilesystemStorage) Remove(ctx context.Context, key string) error {
	if err := os.Remove(f.buildPath(key)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "remove %s", key)
	}

	return nil
}

// List walks the bucket directory and returns the keys that start with prefix.
func (f FilesystemStorage) List(ctx context.Context, prefix string) ([]string, error) {
	base := f.buildPath("")

	// Only walk the deepest directory the prefix names.
	dir := base
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dir = f.buildPath(prefix[:i])
	}

	var keys []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "list %s", prefix)
	}

	sort.Strings(keys)
	return keys, nil
}

func (f FilesystemStorage) buildPath(key string) string {
	parts := []string{
		f.Config.Root,
		f.Config.Bucket,
	}

	if len(key) > 0 {
		parts = append(parts, path.Clean(key))
	}

	return filepath.FromSlash(strings.Join(parts, "/"))
}
