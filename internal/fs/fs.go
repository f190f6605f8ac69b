// Package fs provides filesystem related helper functions.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IsFile returns true if path is a file.
// If the path does not exist an error is returned.
func IsFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	return fi.Mode().IsRegular(), nil
}

// FileExists returns true if path exist and is a file.
func FileExists(path string) bool {
	ret, _ := IsFile(path)

	return ret
}

// IsDir returns true if the path is a directory.
// If the path does not exist, the error from os.Stat() is returned.
func IsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	return fi.IsDir(), nil
}

// DirExists returns true if path exists and is a directory.
func DirExists(path string) bool {
	ret, _ := IsDir(path)

	return ret
}

// Mkdir creates recursively directories.
func Mkdir(path string) error {
	return os.MkdirAll(path, os.FileMode(0o755))
}

// ClearDir removes path recursively and recreates it as an empty directory.
func ClearDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %q failed: %w", path, err)
	}

	if err := Mkdir(path); err != nil {
		return fmt.Errorf("creating %q failed: %w", path, err)
	}

	return nil
}

// AtomicReplaceFile replaces dest with the content of src.
// The content is first written to a temporary file in the directory of dest
// and then renamed to dest, readers never observe a partially written
// destination file.
func AtomicReplaceFile(src, dest string) error {
	srcFd, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFd.Close()

	srcFi, err := srcFd.Stat()
	if err != nil {
		return err
	}

	tmpFd, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := tmpFd.Name()

	_, err = io.Copy(tmpFd, srcFd)
	if err != nil {
		_ = tmpFd.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("copying %q to %q failed: %w", src, tmpPath, err)
	}

	if err := tmpFd.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	if err := os.Chmod(tmpPath, srcFi.Mode()); err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("renaming %q to %q failed: %w", tmpPath, dest, err)
	}

	return nil
}
