// Package config holds the supervisor's operational configuration: where
// scratch directories, the template tree, and logs live, and the fixed
// resource envelope and toolchain invocation applied to every session.
//
// Most of this is compiled-in and normative per the isolation kernel spec;
// the one human-edited surface is an optional YAML file overriding paths
// and envelope values for a given deployment.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	sberrors "myrbox/errors"
)

// Envelope is the fixed resource envelope installed before spawning a
// session. Values are the spec's normative defaults; a config file may
// override them for a given deployment.
type Envelope struct {
	AddressSpaceBytes int64 `yaml:"address_space_bytes"`
	CPUSeconds        int64 `yaml:"cpu_seconds"`
	CoreFileBytes     int64 `yaml:"core_file_bytes"`
	OutputFileBytes   int64 `yaml:"output_file_bytes"`
	OpenFiles         int64 `yaml:"open_files"`
	ResidentSetBytes  int64 `yaml:"resident_set_bytes"`
	StackBytes        int64 `yaml:"stack_bytes"`
	ProcessCount      int64 `yaml:"process_count"`
	WallClockMillis   int64 `yaml:"wall_clock_millis"`
	SubmissionBytes   int64 `yaml:"submission_bytes"`
}

const (
	kib = 1024
	mib = 1024 * kib
)

// DefaultEnvelope is the resource envelope table from the spec, verbatim.
func DefaultEnvelope() Envelope {
	return Envelope{
		AddressSpaceBytes: 512 * mib,
		CPUSeconds:        1,
		CoreFileBytes:     0,
		OutputFileBytes:   32 * mib,
		OpenFiles:         32,
		ResidentSetBytes:  128 * mib,
		StackBytes:        32 * mib,
		ProcessCount:      2048,
		WallClockMillis:   500,
		SubmissionBytes:   16 * kib,
	}
}

// Toolchain is the fixed argv the session driver execs for each stage.
type Toolchain struct {
	CompileArgv []string `yaml:"compile_argv"`
	RunArgv     []string `yaml:"run_argv"`
}

// DefaultToolchain is the compile/run invocation fixed by the spec.
func DefaultToolchain() Toolchain {
	return Toolchain{
		CompileArgv: []string{"mbld", "-b", "a.out", "in.myr", "-I", "/lib/myr", "-r", "/lib/myr/_myrrt.o"},
		RunArgv:     []string{"/a.out"},
	}
}

// Config is the supervisor's full operational configuration.
type Config struct {
	// ScratchBase is the parent directory under which build/<rand> and
	// run/<rand> scratch trees are created.
	ScratchBase string `yaml:"scratch_base"`
	// LogDir receives hard-linked copies of submitted source, named
	// in.myr.<64-hex>.
	LogDir string `yaml:"log_dir"`
	// TemplateDir is the pre-populated, read-only tree the manifest links
	// entries out of.
	TemplateDir string `yaml:"template_dir"`
	// StateDir holds the audit ledger database.
	StateDir string `yaml:"state_dir"`
	// Manifest overrides DefaultManifest when non-empty.
	Manifest []ManifestEntry `yaml:"manifest"`

	Envelope  Envelope  `yaml:"envelope"`
	Toolchain Toolchain `yaml:"toolchain"`
}

// Default returns the compiled-in configuration used when no YAML file is
// supplied.
func Default() Config {
	return Config{
		ScratchBase: "/var/lib/myrbox/scratch",
		LogDir:      "/var/lib/myrbox/log",
		TemplateDir: "/var/lib/myrbox/template",
		StateDir:    "/var/lib/myrbox/state",
		Manifest:    DefaultManifest,
		Envelope:    DefaultEnvelope(),
		Toolchain:   DefaultToolchain(),
	}
}

// Load reads a YAML config file and overlays it onto Default(). A missing
// path is not an error: the caller gets compiled-in defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, sberrors.WrapDetail(err, sberrors.KindSetup, "load config", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, sberrors.WrapDetail(err, sberrors.KindSetup, "load config", "parse "+path)
	}
	if len(cfg.Manifest) == 0 {
		cfg.Manifest = DefaultManifest
	}
	return cfg, nil
}
