package config

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	sberrors "myrbox/errors"
)

// ManifestEntry is either a literal path relative to the template directory
// or a doublestar glob pattern (e.g. "lib/myr/*.a") expanded against it at
// provisioning time. Literal entries are the default and reproduce the
// original build-jail file list exactly; globs are an opt-in for alternate
// toolchain layouts.
type ManifestEntry string

// DefaultManifest is the literal build-jail manifest: the compiler binary,
// its toolchain, and the runtime libraries the compiled program links
// against. Grounded on the original implementation's buildfiles list.
var DefaultManifest = []ManifestEntry{
	"mbld",
	"6m",
	"as",
	"ld",
	"lib64/libbfd-2.24.51-system.20140903.so",
	"lib64/libopcodes-2.24.51-system.20140903.so",
	"lib64/libz.so.1",
	"lib64/libdl.so.2",
	"lib64/libc.so.6",
	"lib64/ld-linux-x86-64.so.2",
	"lib/myr/std",
	"lib/myr/libstd.a",
	"lib/myr/regex",
	"lib/myr/libregex.a",
	"lib/myr/bio",
	"lib/myr/libbio.a",
	"lib/myr/date",
	"lib/myr/libdate.a",
	"lib/myr/_myrrt.o",
}

// Expand resolves a manifest against templateDir, expanding any glob entries
// and returning one concrete, template-relative path per match. Literal
// entries that contain no glob metacharacters pass through unchanged without
// touching the filesystem, so a missing literal entry is only discovered at
// link time (matching the original's fail-at-linkat behavior).
func Expand(templateDir string, manifest []ManifestEntry) ([]string, error) {
	out := make([]string, 0, len(manifest))
	for _, entry := range manifest {
		pattern := string(entry)
		if !doublestar.ValidatePattern(pattern) {
			return nil, sberrors.New(sberrors.KindSetup, "expand manifest", "invalid pattern "+pattern)
		}
		if !hasMeta(pattern) {
			out = append(out, pattern)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(templateDir), pattern)
		if err != nil {
			return nil, sberrors.WrapDetail(err, sberrors.KindSetup, "expand manifest", "glob "+pattern)
		}
		if len(matches) == 0 {
			return nil, sberrors.New(sberrors.KindProvision, "expand manifest", "pattern matched nothing: "+pattern)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// Validate checks that every manifest entry resolves to at least one
// existing file under templateDir, without linking anything. Used by the
// selftest command to catch a missing template file before a real
// submission hits it.
func Validate(templateDir string, manifest []ManifestEntry) []error {
	var errs []error
	resolved, err := Expand(templateDir, manifest)
	if err != nil {
		return []error{err}
	}
	for _, rel := range resolved {
		full := filepath.Join(templateDir, rel)
		if _, err := os.Stat(full); err != nil {
			errs = append(errs, sberrors.WrapDetail(err, sberrors.KindProvision, "validate manifest", rel))
		}
	}
	return errs
}
