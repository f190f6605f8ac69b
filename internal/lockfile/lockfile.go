// Package lockfile parses hash-pinned dependency lockfiles.
//
// A lockfile pins third-party packages in the pip requirements format, one
// logical line per package, exact version and one or more content hashes:
//
//	certifi==2019.3.9 \
//	    --hash=sha256:59b7658e26ca9c7339e00f8f4636cdfe59d34fa37b9b04f6f9e9926b3cece1a5
//
// Version ranges, unpinned entries and entries without hashes are rejected,
// resolving them at install time would break build reproducibility.
package lockfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/electrumsv/winebuild/internal/digest"
)

const hashOptionPrefix = "--hash="

// Entry is one pinned package of a lockfile.
type Entry struct {
	Name    string
	Version string
	Hashes  []*digest.Digest
}

// Lockfile is a parsed and validated dependency lockfile.
type Lockfile struct {
	Path    string
	Entries []*Entry
}

// ValidationError describes a malformed or insufficiently pinned lockfile
// entry.
type ValidationError struct {
	File   string
	Line   int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// ParseFile reads and validates the lockfile at path.
func ParseFile(path string) (*Lockfile, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return Parse(fd, path)
}

// Parse reads and validates a lockfile from r.
// path is only used in error messages.
func Parse(r io.Reader, path string) (*Lockfile, error) {
	lf := Lockfile{Path: path}

	scanner := bufio.NewScanner(r)

	lineNr := 0
	logicalStart := 0
	var logicalLine strings.Builder

	for scanner.Scan() {
		lineNr++

		line := strings.TrimSpace(scanner.Text())
		if logicalLine.Len() == 0 {
			logicalStart = lineNr
		}

		if cont := strings.TrimSuffix(line, "\\"); cont != line {
			logicalLine.WriteString(cont)
			logicalLine.WriteRune(' ')
			continue
		}

		logicalLine.WriteString(line)
		entry, err := parseEntry(logicalLine.String(), path, logicalStart)
		if err != nil {
			return nil, err
		}
		logicalLine.Reset()

		if entry != nil {
			lf.Entries = append(lf.Entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %q failed: %w", path, err)
	}

	if logicalLine.Len() != 0 {
		return nil, &ValidationError{
			File:   path,
			Line:   logicalStart,
			Reason: "line continuation at end of file",
		}
	}

	return &lf, nil
}

// parseEntry parses one logical lockfile line.
// It returns a nil Entry for empty lines and comments.
func parseEntry(line, file string, lineNr int) (*Entry, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	fields := strings.Fields(line)

	// an environment marker does not affect pinning, its tokens are skipped
	// below but the hash options that follow it are still required
	requirement, _, inMarker := strings.Cut(fields[0], ";")

	name, ver, found := strings.Cut(requirement, "==")
	if !found {
		return nil, &ValidationError{
			File:   file,
			Line:   lineNr,
			Reason: fmt.Sprintf("%q is not pinned to an exact version with '=='", requirement),
		}
	}

	if name == "" || ver == "" || strings.ContainsAny(ver, "<>=!~*,") {
		return nil, &ValidationError{
			File:   file,
			Line:   lineNr,
			Reason: fmt.Sprintf("%q does not pin an exact version", requirement),
		}
	}

	entry := Entry{
		Name:    name,
		Version: ver,
	}

	for _, field := range fields[1:] {
		if strings.HasPrefix(field, ";") {
			inMarker = true
			continue
		}

		if strings.HasPrefix(field, hashOptionPrefix) {
			inMarker = false

			d, err := digest.FromString(strings.TrimPrefix(field, hashOptionPrefix))
			if err != nil {
				return nil, &ValidationError{
					File:   file,
					Line:   lineNr,
					Reason: fmt.Sprintf("invalid hash %q: %s", field, err),
				}
			}

			entry.Hashes = append(entry.Hashes, d)
			continue
		}

		if inMarker {
			continue
		}

		return nil, &ValidationError{
			File:   file,
			Line:   lineNr,
			Reason: fmt.Sprintf("unsupported option %q, only %q options are allowed", field, hashOptionPrefix),
		}
	}

	if len(entry.Hashes) == 0 {
		return nil, &ValidationError{
			File:   file,
			Line:   lineNr,
			Reason: fmt.Sprintf("%q carries no %q option, hashes are required", requirement, hashOptionPrefix),
		}
	}

	return &entry, nil
}

// HashMismatchError is returned when the content of a file does not match
// any declared hash of a lockfile entry.
type HashMismatchError struct {
	Entry    *Entry
	Path     string
	Computed *digest.Digest
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("checksum of %q is %s, it matches none of the %d declared hashes of %s==%s",
		e.Path, e.Computed, len(e.Entry.Hashes), e.Entry.Name, e.Entry.Version)
}

// VerifyFileMatches returns an error if computed matches none of the hashes
// declared for the entry.
func (e *Entry) VerifyFileMatches(path string, computed *digest.Digest) error {
	for _, h := range e.Hashes {
		if h.Equal(computed) {
			return nil
		}
	}

	return &HashMismatchError{
		Entry:    e,
		Path:     path,
		Computed: computed,
	}
}
