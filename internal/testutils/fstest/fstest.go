// Package fstest provides test utilities to operate with files and
// directories.
package fstest

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteToFile writes data to a file.
// Directories that are in the path but do not exist are created.
// If an error happens, t.Fatal() is called.
func WriteToFile(t *testing.T, data []byte, path string) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(path), 0o775)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		t.Fatal(err)
	}
}

// WriteExecutable writes data to a file and marks it executable.
// If an error happens, t.Fatal() is called.
func WriteExecutable(t *testing.T, data []byte, path string) {
	t.Helper()

	WriteToFile(t, data, path)

	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

// Chdir changes the working directory to dir for the duration of the
// testcase.
func Chdir(t *testing.T, dir string) {
	t.Helper()

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(oldDir); err != nil {
			t.Fatal(err)
		}
	})
}
