// Package pipeline implements the deterministic release build pipeline.
//
// The pipeline turns a tagged application checkout into byte-reproducible
// installer artifacts for Windows, built on a Linux host through wine.
// It runs five stages in a fixed order: environment preparation, source
// synchronization, resource compilation, dependency freezing and artifact
// building. Every stage either completes or aborts the pipeline, only
// per-locale resource compilation failures are tolerated.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/electrumsv/winebuild/internal/cfg"
	"github.com/electrumsv/winebuild/internal/digest"
	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/vcs/git"
	"github.com/electrumsv/winebuild/internal/version"
)

// Pipeline builds the installer artifacts of one application checkout.
// A Pipeline must only be used for one Run, the isolated wine environment it
// operates on must not be shared with concurrent invocations.
type Pipeline struct {
	// RepoRoot is the absolute path of the application checkout.
	RepoRoot string
	Cfg      *cfg.Pipeline

	// env is the deterministic environment variable set built by the
	// environment stage, it is passed to every external command that runs
	// inside the wine environment.
	env []string

	// repoState caches the git metadata of the checkout, one run always
	// sees one consistent repository state.
	repoState *git.RepositoryState

	version *version.BuildVersion
}

// InstallerArtifact is a final installer binary and its checksum, the
// externally verifiable proof of reproducibility.
type InstallerArtifact struct {
	Path   string
	Digest *digest.Digest
}

// Summary describes the result of a successful pipeline run.
type Summary struct {
	Version    *version.BuildVersion
	Installers []*InstallerArtifact
}

// New returns a Pipeline for the application checkout at repoRoot.
func New(repoRoot string, config *cfg.Pipeline) (*Pipeline, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		RepoRoot:  absRoot,
		Cfg:       config,
		repoState: git.NewRepositoryState(absRoot),
	}, nil
}

// Run executes all pipeline stages in order.
// Every stage runs under the configured stage timeout, expiry aborts the
// pipeline like any other stage failure.
// The first failing stage aborts the run, the returned error identifies the
// stage.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	log.Infof("building %s in %s\n", p.Cfg.Product, p.RepoRoot)

	var installers []*InstallerArtifact

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{name: "environment", fn: p.PrepareEnvironment},
		{name: "sources", fn: p.SyncSources},
		{name: "resources", fn: func(ctx context.Context) error {
			_, err := p.CompileResources(ctx)
			return err
		}},
		{name: "dependencies", fn: p.FreezeDependencies},
		{name: "artifacts", fn: func(ctx context.Context) error {
			var err error
			installers, err = p.BuildArtifacts(ctx)
			return err
		}},
	}

	for _, stage := range stages {
		if err := p.runStage(ctx, stage.name, stage.fn); err != nil {
			return nil, err
		}
	}

	return &Summary{
		Version:    p.version,
		Installers: installers,
	}, nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(ctx, p.Cfg.Build.StageTimeoutDuration())
	defer cancel()

	start := time.Now()
	log.Debugf("stage %s: starting\n", name)

	if err := fn(stageCtx); err != nil {
		return &StageError{Stage: name, Err: err}
	}

	log.Debugf("stage %s: finished in %s\n", name, time.Since(start))

	return nil
}

// Version returns the build version computed by the source synchronization
// stage, nil if the stage did not run yet.
func (p *Pipeline) Version() *version.BuildVersion {
	return p.version
}

// path returns the absolute path of a checkout relative path.
func (p *Pipeline) path(rel string) string {
	return filepath.Join(p.RepoRoot, rel)
}

// StageError tags a pipeline failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ToolMissingError is returned when a required external tool is not
// installed.
type ToolMissingError struct {
	// Tool is the missing executable.
	Tool string
	// Remedy tells the operator how to install the tool.
	Remedy string
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("required tool %q was not found in PATH, %s", e.Tool, e.Remedy)
}
