package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CanonicalizeMTimes sets the modification time of every file and directory
// below root, including root itself, to mtime.
// Archiving and installer tools embed entry timestamps, without a fixed
// modification time two builds of identical content differ byte-wise.
// The operation is idempotent, entries are visited in lexical order.
func CanonicalizeMTimes(root string, mtime time.Time) error {
	err := filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		return chtimes(path, mtime)
	})
	if err != nil {
		return fmt.Errorf("canonicalizing modification times in %q failed: %w", root, err)
	}

	return nil
}

func chtimes(path string, mtime time.Time) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}

	// chtimes on a symlink would modify the target instead
	if fi.Mode()&fs.ModeSymlink != 0 {
		return nil
	}

	if fi.ModTime().Equal(mtime) {
		return nil
	}

	return os.Chtimes(path, mtime, mtime)
}
