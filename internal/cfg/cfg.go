// Package cfg reads and validates the winebuild pipeline configuration.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// PipelineFile contains the name of the pipeline configuration file, it is
// expected in the root of the application checkout.
const PipelineFile = "winebuild.toml"

// Pipeline contains the pipeline configuration.
// All paths are relative to the root of the application checkout, the
// pipeline is run from there.
type Pipeline struct {
	// Product is the product name embedded in the installer filename.
	Product string `toml:"product"`

	Environment  Environment  `toml:"environment"`
	Sources      Sources      `toml:"sources"`
	Locales      Locales      `toml:"locales"`
	Dependencies Dependencies `toml:"dependencies"`
	Build        Build        `toml:"build"`
	Tools        Tools        `toml:"tools"`
}

// Environment describes the isolated wine environment and the
// deterministic-build interpreter settings.
// DisableBytecodeCache and HashSeed are the only recognized
// deterministic-build options.
type Environment struct {
	// WinePrefix is the directory of the isolated WINEPREFIX.
	WinePrefix string `toml:"wine_prefix"`
	// Arch is the WINEARCH value, win32 or win64.
	Arch string `toml:"arch"`
	// PythonVersion is the pinned interpreter version, the prepared
	// environment is verified against it.
	PythonVersion string `toml:"python_version"`
	// PythonExe is the windows path of the interpreter inside the prefix.
	PythonExe string `toml:"python_exe"`
	// DisableBytecodeCache suppresses bytecode cache writes
	// (PYTHONDONTWRITEBYTECODE).
	DisableBytecodeCache bool `toml:"disable_bytecode_cache"`
	// HashSeed is the fixed interpreter hash seed (PYTHONHASHSEED).
	HashSeed int `toml:"hash_seed"`
}

// Sources lists the vendored sub-resource trees of the checkout.
type Sources struct {
	// Submodules are repository relative paths of git submodules that are
	// initialized and updated to their recorded revisions.
	Submodules []string `toml:"submodules"`
}

// Locales configures the compilation of translation catalogs and generated
// resource modules.
type Locales struct {
	// SourceDir contains one directory per locale.
	SourceDir string `toml:"source_dir"`
	// SourceFile is the name of the message source file in each locale
	// directory.
	SourceFile string `toml:"source_file"`
	// Catalog is the name of the compiled binary catalog.
	Catalog string `toml:"catalog"`
	// InstallDir is the directory the compiled catalogs are placed in,
	// as {install_dir}/{locale}/LC_MESSAGES/{catalog}.
	InstallDir string `toml:"install_dir"`
	// IconScript regenerates the icons resource module, empty disables
	// icon generation.
	IconScript string `toml:"icon_script"`
	// IconModule is the generated resource module inside the application
	// tree, it is replaced atomically.
	IconModule string `toml:"icon_module"`
	// Parallelism bounds concurrent catalog compilations, 0 or 1 compiles
	// sequentially.
	Parallelism int `toml:"parallelism"`
}

// Dependencies configures the hash-pinned dependency sets.
type Dependencies struct {
	// CoreLockfile pins the runtime dependency set.
	CoreLockfile string `toml:"core_lockfile"`
	// HardwareLockfile pins the optional hardware-peripheral-support set,
	// empty disables the set.
	HardwareLockfile string `toml:"hardware_lockfile"`
	// WheelDir is an optional local wheel cache, every wheel in it that
	// belongs to a lockfile entry is verified against the declared hashes
	// before installation.
	WheelDir string `toml:"wheel_dir"`
}

// Build configures the artifact builder and canonicalizer.
type Build struct {
	// SpecFile is the YAML freeze build specification.
	SpecFile string `toml:"spec_file"`
	// DistDir receives the final artifacts, it is cleared at the start of
	// every build.
	DistDir string `toml:"dist_dir"`
	// TmpDir receives build intermediates.
	TmpDir string `toml:"tmp_dir"`
	// NSISScript is the installer generator script.
	NSISScript string `toml:"nsis_script"`
	// InstallerExt is the platform extension of the installer artifact.
	InstallerExt string `toml:"installer_ext"`
	// Timestamp is the canonical modification time every file and
	// directory of the output tree is set to.
	Timestamp time.Time `toml:"timestamp"`
	// StageTimeout bounds the runtime of every pipeline stage,
	// e.g. "30m". Expiry is a stage failure.
	StageTimeout string `toml:"stage_timeout"`

	stageTimeout time.Duration
}

// Tools contains the names of the external commands the pipeline invokes.
// Names without path separators are resolved via PATH.
type Tools struct {
	Wine     string `toml:"wine"`
	WineBoot string `toml:"wineboot"`
	Msgfmt   string `toml:"msgfmt"`
	Makensis string `toml:"makensis"`
}

// FromFile reads the pipeline configuration from a file, validates it and
// applies defaults.
func FromFile(path string) (*Pipeline, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Pipeline{}
	if err := toml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("parsing %q failed: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &config, nil
}

// Validate validates the pipeline configuration and applies defaults.
func (p *Pipeline) Validate() error {
	if p.Product == "" {
		return errors.New("product parameter must be set")
	}

	if err := p.Environment.validate(); err != nil {
		return fmt.Errorf("[environment] section contains errors: %w", err)
	}

	if err := p.Locales.validate(); err != nil {
		return fmt.Errorf("[locales] section contains errors: %w", err)
	}

	if err := p.Dependencies.validate(); err != nil {
		return fmt.Errorf("[dependencies] section contains errors: %w", err)
	}

	if err := p.Build.validate(); err != nil {
		return fmt.Errorf("[build] section contains errors: %w", err)
	}

	p.Tools.applyDefaults()

	return nil
}

func (e *Environment) validate() error {
	if e.WinePrefix == "" {
		return errors.New("wine_prefix parameter must be set")
	}

	if e.Arch == "" {
		e.Arch = "win64"
	}

	if e.Arch != "win32" && e.Arch != "win64" {
		return fmt.Errorf("arch parameter is %q, must be win32 or win64", e.Arch)
	}

	if e.PythonVersion == "" {
		return errors.New("python_version parameter must be set")
	}

	if e.PythonExe == "" {
		return errors.New("python_exe parameter must be set")
	}

	return nil
}

func (l *Locales) validate() error {
	if l.SourceDir == "" {
		return errors.New("source_dir parameter must be set")
	}

	if l.SourceFile == "" {
		return errors.New("source_file parameter must be set")
	}

	if l.Catalog == "" {
		return errors.New("catalog parameter must be set")
	}

	if l.InstallDir == "" {
		return errors.New("install_dir parameter must be set")
	}

	if l.IconScript != "" && l.IconModule == "" {
		return errors.New("icon_module parameter must be set when icon_script is set")
	}

	if l.Parallelism < 0 {
		return errors.New("parallelism parameter must be >= 0")
	}

	if l.Parallelism == 0 {
		l.Parallelism = 1
	}

	return nil
}

func (d *Dependencies) validate() error {
	if d.CoreLockfile == "" {
		return errors.New("core_lockfile parameter must be set")
	}

	return nil
}

func (b *Build) validate() error {
	if b.SpecFile == "" {
		return errors.New("spec_file parameter must be set")
	}

	if b.DistDir == "" {
		b.DistDir = "dist"
	}

	if b.TmpDir == "" {
		b.TmpDir = "tmp"
	}

	if b.NSISScript == "" {
		return errors.New("nsis_script parameter must be set")
	}

	if b.InstallerExt == "" {
		b.InstallerExt = "exe"
	}

	if b.Timestamp.IsZero() {
		return errors.New("timestamp parameter must be set")
	}

	if b.StageTimeout == "" {
		b.StageTimeout = "30m"
	}

	timeout, err := time.ParseDuration(b.StageTimeout)
	if err != nil {
		return fmt.Errorf("stage_timeout parameter is invalid: %w", err)
	}

	if timeout <= 0 {
		return errors.New("stage_timeout parameter must be > 0")
	}

	b.stageTimeout = timeout

	return nil
}

// StageTimeoutDuration returns the parsed stage_timeout parameter.
// Validate must have been called before.
func (b *Build) StageTimeoutDuration() time.Duration {
	return b.stageTimeout
}

func (t *Tools) applyDefaults() {
	if t.Wine == "" {
		t.Wine = "wine"
	}

	if t.WineBoot == "" {
		t.WineBoot = "wineboot"
	}

	if t.Msgfmt == "" {
		t.Msgfmt = "msgfmt"
	}

	if t.Makensis == "" {
		t.Makensis = "makensis"
	}
}

const exampleConfig = `# winebuild pipeline configuration
product = "electrumsv"

[environment]
# directory of the isolated WINEPREFIX, relative to the checkout root
wine_prefix = "tmp/wine64"
arch = "win64"
# pinned interpreter version, the prepared environment is verified against it
python_version = "3.9.13"
# windows path of the interpreter inside the prefix
python_exe = 'C:\python3\python.exe'
# deterministic-build interpreter settings
disable_bytecode_cache = true
hash_seed = 22

[sources]
# git submodules updated to their recorded revisions before the build
submodules = [
    "contrib/deterministic-build/electrum-locale",
]

[locales]
source_dir = "contrib/deterministic-build/electrum-locale/locale"
source_file = "electrum-sv.po"
catalog = "electrum-sv.mo"
install_dir = "electrumsv/locale"
icon_script = "contrib/make_icons.sh"
icon_module = "electrumsv/gui/qt/icons_rc.py"

[dependencies]
core_lockfile = "contrib/deterministic-build/requirements.txt"
hardware_lockfile = "contrib/deterministic-build/requirements-hw.txt"

[build]
spec_file = "contrib/build-wine/build.yaml"
dist_dir = "dist"
tmp_dir = "tmp"
nsis_script = "contrib/build-wine/electrum-sv.nsis"
installer_ext = "exe"
# canonical modification time of all produced files
timestamp = 2019-01-01T00:00:00Z
stage_timeout = "30m"
`

// NewPipelineFile writes an exemplary pipeline configuration file to
// path.
// It fails if the file already exists.
func NewPipelineFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(exampleConfig); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
