package pipeline

import (
	"context"
	"fmt"
	"os"
	stdexec "os/exec"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/electrumsv/winebuild/internal/cfg"
	"github.com/electrumsv/winebuild/internal/digest/sha256"
	"github.com/electrumsv/winebuild/internal/exec"
	"github.com/electrumsv/winebuild/internal/fs"
	"github.com/electrumsv/winebuild/internal/log"
)

// State identifies the progress of the artifact build.
// The states form a linear sequence without back-edges, every build step
// runs exactly once and only from its predecessor state.
type State int

const (
	StateInitial State = iota
	StateClean
	StateFrozen
	StateTimestampCanonicalized
	StateInstalled
	StateRenamed
	StateChecksummed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateClean:
		return "Clean"
	case StateFrozen:
		return "Frozen"
	case StateTimestampCanonicalized:
		return "TimestampCanonicalized"
	case StateInstalled:
		return "Installed"
	case StateRenamed:
		return "Renamed"
	case StateChecksummed:
		return "Checksummed"
	default:
		return "Invalid"
	}
}

// BuildArtifacts freezes the application into standalone executables,
// canonicalizes the output tree and produces the final named installer with
// its checksum.
// It requires that the sources stage ran before, the computed version is
// embedded in the artifact name and installer metadata.
func (p *Pipeline) BuildArtifacts(ctx context.Context) ([]*InstallerArtifact, error) {
	if p.version == nil {
		return nil, fmt.Errorf("build version is not set, the sources stage must run first")
	}

	if _, err := stdexec.LookPath(p.Cfg.Tools.Makensis); err != nil {
		return nil, &ToolMissingError{
			Tool:   p.Cfg.Tools.Makensis,
			Remedy: "install the nsis package",
		}
	}

	buildSpec, err := cfg.BuildSpecFromFile(p.path(p.Cfg.Build.SpecFile))
	if err != nil {
		return nil, fmt.Errorf("loading the freeze build specification failed: %w", err)
	}

	b := artifactBuilder{pipeline: p, spec: buildSpec}

	steps := []struct {
		to State
		fn func(context.Context) error
	}{
		{to: StateClean, fn: b.clean},
		{to: StateFrozen, fn: b.freeze},
		{to: StateTimestampCanonicalized, fn: b.canonicalize},
		{to: StateInstalled, fn: b.install},
		{to: StateRenamed, fn: b.rename},
		{to: StateChecksummed, fn: b.checksum},
	}

	for _, step := range steps {
		if err := b.advance(step.to); err != nil {
			return nil, err
		}

		if err := step.fn(ctx); err != nil {
			return nil, fmt.Errorf("in state %s: %w", b.state, err)
		}

		log.Debugf("artifact build reached state %s\n", b.state)
	}

	return b.installers, nil
}

// artifactBuilder holds the state of one artifact build.
type artifactBuilder struct {
	pipeline *Pipeline
	spec     *cfg.BuildSpec

	state      State
	installers []*InstallerArtifact
}

// advance moves the builder to the passed state.
// Skipping or repeating a state is a programming error, the state machine
// has no back-edges.
func (b *artifactBuilder) advance(to State) error {
	if to != b.state+1 {
		return fmt.Errorf("invalid artifact state transition from %s to %s", b.state, to)
	}

	b.state = to

	return nil
}

// clean discards the output directory of any prior run.
// Stale artifacts must never leak into a new release.
func (b *artifactBuilder) clean(context.Context) error {
	distDir := b.pipeline.path(b.pipeline.Cfg.Build.DistDir)

	log.Debugf("clearing output directory %q\n", distDir)

	return fs.ClearDir(distDir)
}

// freeze bundles the interpreter, application code and dependencies into
// one standalone executable per build spec entry.
// The computed version is exported to the freezing tool, the spec file embeds
// it in the executable metadata.
func (b *artifactBuilder) freeze(ctx context.Context) error {
	p := b.pipeline

	env := append(append([]string{}, p.env...),
		"PRODUCT_VERSION="+p.version.Version)

	for _, exe := range b.spec.Executables {
		log.Infof("freezing executable %s\n", exe.Name)

		args := []string{
			p.Cfg.Environment.PythonExe, "-m", "PyInstaller",
			"--noconfirm",
			"--name", exe.Name,
			"--distpath", p.path(p.Cfg.Build.DistDir),
			"--workpath", filepath.Join(p.path(p.Cfg.Build.TmpDir), "pyinstaller"),
			"--specpath", p.path(p.Cfg.Build.TmpDir),
		}

		if exe.Console {
			args = append(args, "--console")
		} else {
			args = append(args, "--windowed")
		}

		for _, mod := range b.spec.ExcludedModules {
			args = append(args, "--exclude-module", mod)
		}

		args = append(args, p.path(exe.Script))

		_, err := exec.Command(p.Cfg.Tools.Wine, args...).
			Directory(p.RepoRoot).
			Env(env).
			ExpectSuccess().
			LogFn(log.Debugf).
			Run(ctx)
		if err != nil {
			return fmt.Errorf("freezing executable %q failed: %w", exe.Name, err)
		}
	}

	return nil
}

// canonicalize sets the modification time of every entry in the output tree
// to the fixed build timestamp.
func (b *artifactBuilder) canonicalize(context.Context) error {
	p := b.pipeline

	return fs.CanonicalizeMTimes(
		p.path(p.Cfg.Build.DistDir), p.Cfg.Build.Timestamp)
}

// install invokes the installer generator against the canonicalized tree.
// The computed version is passed so it can be embedded in the installer
// metadata.
func (b *artifactBuilder) install(ctx context.Context) error {
	p := b.pipeline

	_, err := exec.Command(p.Cfg.Tools.Makensis,
		"-DPRODUCT_VERSION="+p.version.Version,
		p.path(p.Cfg.Build.NSISScript),
	).
		Directory(p.RepoRoot).
		Env(p.env).
		ExpectSuccess().
		LogFn(log.Debugf).
		Run(ctx)
	if err != nil {
		return fmt.Errorf("generating the installer failed: %w", err)
	}

	return nil
}

// rename gives the produced installer its canonical
// {product}-{version}-setup.{ext} name.
func (b *artifactBuilder) rename(context.Context) error {
	p := b.pipeline
	buildCfg := &p.Cfg.Build

	distDir := p.path(buildCfg.DistDir)

	pattern := p.Cfg.Product + "*-setup." + buildCfg.InstallerExt
	matches, err := doublestar.Glob(os.DirFS(distDir), pattern)
	if err != nil {
		return err
	}

	if len(matches) != 1 {
		return fmt.Errorf("found %d installer files matching %q in %q, expected exactly 1",
			len(matches), pattern, distDir)
	}

	canonical := fmt.Sprintf("%s-%s-setup.%s",
		p.Cfg.Product, p.version.Version, buildCfg.InstallerExt)

	if matches[0] != canonical {
		err := os.Rename(
			filepath.Join(distDir, matches[0]),
			filepath.Join(distDir, canonical))
		if err != nil {
			return fmt.Errorf("renaming the installer failed: %w", err)
		}
	}

	b.installers = []*InstallerArtifact{
		{Path: filepath.Join(distDir, canonical)},
	}

	return nil
}

// checksum computes the content checksum of every installer, it is the
// externally verifiable proof of reproducibility.
// A sidecar file with the checksum is written next to each installer.
func (b *artifactBuilder) checksum(context.Context) error {
	for _, installer := range b.installers {
		d, err := sha256.File(installer.Path)
		if err != nil {
			return fmt.Errorf("computing the installer checksum failed: %w", err)
		}

		installer.Digest = d

		sidecar := installer.Path + ".sha256"
		content := fmt.Sprintf("%s  %s\n", d.Hex(), filepath.Base(installer.Path))
		if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing the checksum file failed: %w", err)
		}
	}

	return nil
}
