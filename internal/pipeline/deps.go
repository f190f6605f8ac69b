package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/electrumsv/winebuild/internal/digest/sha256"
	"github.com/electrumsv/winebuild/internal/exec"
	"github.com/electrumsv/winebuild/internal/lockfile"
	"github.com/electrumsv/winebuild/internal/log"
)

// FreezeDependencies installs the pinned dependency sets into the isolated
// environment's interpreter.
// Two disjoint sets are installed, the core runtime set and the optional
// hardware-peripheral-support set, each from a fully hash-pinned lockfile.
// Any unpinned entry, checksum mismatch or resolution outside the lockfile
// aborts the pipeline, silently installing a different version would break
// reproducibility.
func (p *Pipeline) FreezeDependencies(ctx context.Context) error {
	lockfiles := []string{p.Cfg.Dependencies.CoreLockfile}
	if hw := p.Cfg.Dependencies.HardwareLockfile; hw != "" {
		lockfiles = append(lockfiles, hw)
	}

	for _, path := range lockfiles {
		if err := p.installLockfile(ctx, p.path(path)); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) installLockfile(ctx context.Context, path string) error {
	lf, err := lockfile.ParseFile(path)
	if err != nil {
		return fmt.Errorf("validating lockfile failed: %w", err)
	}

	log.Infof("installing %d pinned packages from %s\n",
		len(lf.Entries), filepath.Base(path))

	if wheelDir := p.Cfg.Dependencies.WheelDir; wheelDir != "" {
		if err := p.verifyCachedWheels(p.path(wheelDir), lf); err != nil {
			return err
		}
	}

	args := []string{
		p.Cfg.Environment.PythonExe, "-m", "pip", "install",
		"--no-deps", "--no-warn-script-location", "--require-hashes",
	}
	if wheelDir := p.Cfg.Dependencies.WheelDir; wheelDir != "" {
		args = append(args, "--no-index", "--find-links", p.path(wheelDir))
	}
	args = append(args, "-r", path)

	_, err = exec.Command(p.Cfg.Tools.Wine, args...).
		Directory(p.RepoRoot).
		Env(p.env).
		ExpectSuccess().
		LogFn(log.Debugf).
		Run(ctx)
	if err != nil {
		return fmt.Errorf("installing pinned packages from %q failed: %w", path, err)
	}

	return nil
}

// verifyCachedWheels checks every wheel in the local cache that belongs to a
// lockfile entry against the declared hashes.
// pip enforces the hashes again at install time, verifying the cache first
// rejects a tampered wheel before anything is installed.
func (p *Pipeline) verifyCachedWheels(wheelDir string, lf *lockfile.Lockfile) error {
	entries, err := os.ReadDir(wheelDir)
	if err != nil {
		return fmt.Errorf("reading wheel cache directory failed: %w", err)
	}

	for _, dirEntry := range entries {
		if dirEntry.IsDir() {
			continue
		}

		entry := matchingLockfileEntry(lf, dirEntry.Name())
		if entry == nil {
			continue
		}

		wheelPath := filepath.Join(wheelDir, dirEntry.Name())
		computed, err := sha256.File(wheelPath)
		if err != nil {
			return err
		}

		if err := entry.VerifyFileMatches(wheelPath, computed); err != nil {
			return err
		}

		log.Debugf("wheel %s verified against lockfile hashes\n", dirEntry.Name())
	}

	return nil
}

// matchingLockfileEntry returns the lockfile entry a wheel filename belongs
// to, nil if none matches.
// Wheel filenames normalize dashes in package names to underscores.
func matchingLockfileEntry(lf *lockfile.Lockfile, filename string) *lockfile.Entry {
	for _, entry := range lf.Entries {
		normalized := strings.ReplaceAll(entry.Name, "-", "_")
		prefix := normalized + "-" + entry.Version + "-"

		if strings.HasPrefix(filename, prefix) {
			return entry
		}
	}

	return nil
}
