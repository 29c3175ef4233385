// Package fsutil provides file system helpers shared by the catalog loaders.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
)

// CollectFiles resolves path to the files a loader should read. A regular file
// is returned as-is regardless of its extension; a directory is walked
// recursively for files ending in ext. The result is in lexical order and
// never empty on success.
func CollectFiles(path, ext string) ([]string, error) {
	if ext == "" {
		panic("fsutil: extension must not be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "access %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(d.Name()) == ext {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", path)
	}
	if len(files) == 0 {
		return nil, errors.Newf("no %s files found under %s", ext, path)
	}

	slices.Sort(files)
	return files, nil
}
