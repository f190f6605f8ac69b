package pipeline

import (
	"context"
	"fmt"
	"os"
	stdexec "os/exec"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/electrumsv/winebuild/internal/exec"
	"github.com/electrumsv/winebuild/internal/fs"
	"github.com/electrumsv/winebuild/internal/log"
)

// ResourceResult describes the outcome of the resource compilation stage.
type ResourceResult struct {
	CompiledLocales int
	SkippedLocales  int
}

// CompileResources compiles the locale message sources into binary catalogs
// and regenerates the icons resource module.
// Compiling a single locale is best-effort: a failure is logged and the
// locale skipped, a missing translation must not block a release.
// A missing compiler tool or a failing icon module regeneration aborts the
// stage.
func (p *Pipeline) CompileResources(ctx context.Context) (*ResourceResult, error) {
	if _, err := stdexec.LookPath(p.Cfg.Tools.Msgfmt); err != nil {
		return nil, &ToolMissingError{
			Tool:   p.Cfg.Tools.Msgfmt,
			Remedy: "install the gettext package",
		}
	}

	result, err := p.compileLocales(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.regenerateIconModule(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *Pipeline) compileLocales(ctx context.Context) (*ResourceResult, error) {
	localesCfg := &p.Cfg.Locales

	sourceDir := p.path(localesCfg.SourceDir)
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading locale source directory failed: %w", err)
	}

	var compiled, skipped atomic.Int32

	// compilation order must not influence the output, every locale
	// writes to its own destination path and the artifact stage
	// canonicalizes all timestamps afterwards
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(localesCfg.Parallelism)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		locale := entry.Name()
		src := filepath.Join(sourceDir, locale, localesCfg.SourceFile)
		if !fs.FileExists(src) {
			log.Debugf("locale %s: no %s file, ignoring\n", locale, localesCfg.SourceFile)
			continue
		}

		dest := filepath.Join(
			p.path(localesCfg.InstallDir), locale, "LC_MESSAGES", localesCfg.Catalog)

		grp.Go(func() error {
			if err := p.compileCatalog(grpCtx, src, dest); err != nil {
				// a cancelled build is a stage failure, not a skip
				if ctxErr := grpCtx.Err(); ctxErr != nil {
					return ctxErr
				}

				log.Errorf("locale %s: compiling message catalog failed, skipping: %s\n", locale, err)
				skipped.Add(1)

				return nil
			}

			compiled.Add(1)

			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	result := ResourceResult{
		CompiledLocales: int(compiled.Load()),
		SkippedLocales:  int(skipped.Load()),
	}

	log.Infof("compiled %d locale catalogs, skipped %d\n",
		result.CompiledLocales, result.SkippedLocales)

	return &result, nil
}

func (p *Pipeline) compileCatalog(ctx context.Context, src, dest string) error {
	if err := fs.Mkdir(filepath.Dir(dest)); err != nil {
		return err
	}

	_, err := exec.Command(p.Cfg.Tools.Msgfmt, "--output-file", dest, src).
		Directory(p.RepoRoot).
		ExpectSuccess().
		LogFn(log.Debugf).
		Run(ctx)

	return err
}

// regenerateIconModule runs the configured icon script and atomically
// replaces the generated resource module in the application tree.
// A partially written resource module would silently corrupt the frozen
// artifact, replacement failures are fatal.
func (p *Pipeline) regenerateIconModule(ctx context.Context) error {
	localesCfg := &p.Cfg.Locales
	if localesCfg.IconScript == "" {
		return nil
	}

	if err := fs.Mkdir(p.path(p.Cfg.Build.TmpDir)); err != nil {
		return err
	}

	// the script receives the output path as single argument and must
	// write the regenerated module there
	tmpModule := filepath.Join(
		p.path(p.Cfg.Build.TmpDir), filepath.Base(localesCfg.IconModule))

	_, err := exec.Command(p.path(localesCfg.IconScript), tmpModule).
		Directory(p.RepoRoot).
		ExpectSuccess().
		LogFn(log.Debugf).
		Run(ctx)
	if err != nil {
		return fmt.Errorf("regenerating the icons resource module failed: %w", err)
	}

	dest := p.path(localesCfg.IconModule)
	if err := fs.AtomicReplaceFile(tmpModule, dest); err != nil {
		return fmt.Errorf("replacing the icons resource module %q failed: %w", dest, err)
	}

	log.Debugf("icons resource module %q regenerated\n", dest)

	return nil
}
