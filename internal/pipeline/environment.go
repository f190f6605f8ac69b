package pipeline

import (
	"context"
	"fmt"
	"os"
	stdexec "os/exec"
	"strconv"
	"strings"

	"github.com/electrumsv/winebuild/internal/exec"
	"github.com/electrumsv/winebuild/internal/fs"
	"github.com/electrumsv/winebuild/internal/log"
)

// PrepareEnvironment ensures the isolated wine environment exists and builds
// the deterministic environment variable set of the build.
// The operation is idempotent, an already provisioned wine prefix is reused
// unchanged.
// A wine environment that can not be initialized is unrecoverable, the whole
// pipeline requires it.
func (p *Pipeline) PrepareEnvironment(ctx context.Context) error {
	if _, err := stdexec.LookPath(p.Cfg.Tools.Wine); err != nil {
		return &ToolMissingError{
			Tool:   p.Cfg.Tools.Wine,
			Remedy: "install wine via the host package manager",
		}
	}

	p.env = p.buildEnv()

	prefix := p.path(p.Cfg.Environment.WinePrefix)
	if fs.DirExists(prefix) {
		log.Debugf("wine prefix %q exists, reusing it\n", prefix)
	} else {
		if err := fs.Mkdir(prefix); err != nil {
			return fmt.Errorf("creating wine prefix directory failed: %w", err)
		}

		log.Infof("initializing wine prefix %q (%s)\n", prefix, p.Cfg.Environment.Arch)

		_, err := exec.Command(p.Cfg.Tools.WineBoot, "--init").
			Directory(p.RepoRoot).
			Env(p.env).
			ExpectSuccess().
			LogFn(log.Debugf).
			Run(ctx)
		if err != nil {
			return fmt.Errorf("initializing the wine environment failed: %w", err)
		}
	}

	return p.verifyInterpreter(ctx)
}

// buildEnv returns the full environment variable set for commands that run
// inside the wine environment.
// The deterministic-build variables are taken from the explicit
// configuration, never from the ambient process environment.
func (p *Pipeline) buildEnv() []string {
	envCfg := &p.Cfg.Environment

	env := append(os.Environ(),
		"WINEPREFIX="+p.path(envCfg.WinePrefix),
		"WINEARCH="+envCfg.Arch,
		"WINEDEBUG=-all",
		"LC_ALL=C.UTF-8",
		"TZ=UTC",
		"SOURCE_DATE_EPOCH="+strconv.FormatInt(p.Cfg.Build.Timestamp.Unix(), 10),
		"PYTHONHASHSEED="+strconv.Itoa(envCfg.HashSeed),
	)

	if envCfg.DisableBytecodeCache {
		env = append(env, "PYTHONDONTWRITEBYTECODE=1")
	}

	return env
}

// verifyInterpreter checks that the interpreter inside the prefix responds
// and reports the pinned version.
func (p *Pipeline) verifyInterpreter(ctx context.Context) error {
	res, err := exec.Command(p.Cfg.Tools.Wine, p.Cfg.Environment.PythonExe, "--version").
		Directory(p.RepoRoot).
		Env(p.env).
		ExpectSuccess().
		LogFn(log.Debugf).
		Run(ctx)
	if err != nil {
		return fmt.Errorf("probing the interpreter in the wine environment failed: %w", err)
	}

	reported := strings.TrimSpace(res.StrOutput())
	if !strings.Contains(reported, p.Cfg.Environment.PythonVersion) {
		return fmt.Errorf("interpreter reports version %q, pinned version is %q",
			reported, p.Cfg.Environment.PythonVersion)
	}

	log.Debugf("interpreter version verified: %s\n", reported)

	return nil
}
