package jail

import (
	"os"
	"syscall"

	"myrbox/config"
	sberrors "myrbox/errors"
)

// BuildTree is a provisioned compile-stage jail: its scratch directory. The
// template directory descriptor used for the hard-link pass is closed
// before ProvisionBuild returns.
type BuildTree struct {
	Scratch Scratch
}

// ProvisionBuild creates the compile-stage scratch directory, its lib64,
// lib/myr, and tmp subdirectories, and hard-links every resolved manifest
// entry into it from templateDir. Mirrors the original setupcompile: linkat
// from an opened template fd so a symlink swap mid-provisioning cannot
// redirect a link target.
func ProvisionBuild(scratchBase, templateDir string, manifest []config.ManifestEntry) (BuildTree, error) {
	scratch, err := NewScratch(scratchBase)
	if err != nil {
		return BuildTree{}, err
	}

	for _, dir := range []string{"lib64", "lib", "lib/myr", "tmp"} {
		if err := mkdirat(scratch.Fd, dir, 0o700); err != nil {
			scratch.Close()
			return BuildTree{}, sberrors.WrapDetail(err, sberrors.KindProvision, "provision build tree", dir)
		}
	}

	templateFd, err := syscall.Open(templateDir, syscall.O_DIRECTORY|syscall.O_RDONLY, 0)
	if err != nil {
		scratch.Close()
		return BuildTree{}, sberrors.WrapDetail(err, sberrors.KindSetup, "provision build tree", "open template "+templateDir)
	}
	defer syscall.Close(templateFd)

	entries, err := config.Expand(templateDir, manifest)
	if err != nil {
		scratch.Close()
		return BuildTree{}, err
	}

	for _, entry := range entries {
		if err := syscall.Linkat(templateFd, entry, scratch.Fd, entry, 0); err != nil {
			scratch.Close()
			return BuildTree{}, sberrors.WrapDetail(err, sberrors.KindProvision, "link manifest entry", entry)
		}
	}

	return BuildTree{Scratch: scratch}, nil
}

// ProvisionRun creates the run-stage scratch directory. Unlike the build
// tree it starts empty; the compiled artifact is linked in separately once
// the compile stage has produced it.
func ProvisionRun(scratchBase string) (Scratch, error) {
	return NewScratch(scratchBase)
}

// LinkArtifact hard-links name (typically "a.out") from the build tree into
// the run tree.
func LinkArtifact(build BuildTree, run Scratch, name string) error {
	if err := syscall.Linkat(build.Scratch.Fd, name, run.Fd, name, 0); err != nil {
		return sberrors.WrapDetail(err, sberrors.KindStageExit, "link artifact", name)
	}
	return nil
}

// WriteSubmission writes the submission bytes into the build tree as
// in.myr, mode 0600, matching the original readpost.
func WriteSubmission(build BuildTree, data []byte) error {
	fd, err := syscallOpenat(build.Scratch.Fd, "in.myr", syscall.O_WRONLY|syscall.O_CREAT, 0o600)
	if err != nil {
		return sberrors.WrapDetail(err, sberrors.KindProvision, "write submission", "in.myr")
	}

	f := os.NewFile(uintptr(fd), "in.myr")
	defer f.Close()

	n, err := f.Write(data)
	if err != nil {
		return sberrors.WrapDetail(err, sberrors.KindProvision, "write submission", "short write")
	}
	if n != len(data) {
		return sberrors.New(sberrors.KindProvision, "write submission", "incomplete write to in.myr")
	}
	return nil
}

func mkdirat(dirfd int, path string, mode uint32) error {
	return syscall.Mkdirat(dirfd, path, mode)
}

func syscallOpenat(dirfd int, path string, flags int, mode uint32) (int, error) {
	return syscall.Openat(dirfd, path, flags, mode)
}
