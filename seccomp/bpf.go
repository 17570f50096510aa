// Package seccomp builds and installs the fixed BPF syscall filters used by
// every stage of a sandbox session (master, compile, run).
//
// Policies are compiled-in data, not code: each stage gets a fixed allow-list
// and a default action, turned into a BPF program at startup. There is no
// config file format to parse and no external seccomp library dependency -
// the program is small enough that hand-built BPF, in the style of the
// teacher's OCI-seccomp-config builder, is the direct and auditable choice.
package seccomp

import (
	"fmt"
	"syscall"
	"unsafe"

	sberrors "myrbox/errors"
)

// Seccomp constants.
const (
	SECCOMP_MODE_FILTER      = 2
	SECCOMP_RET_KILL_PROCESS = 0x80000000
	SECCOMP_RET_ALLOW        = 0x7fff0000

	PR_SET_NO_NEW_PRIVS = 38
	PR_SET_SECCOMP      = 22
)

// BPF constants.
const (
	BPF_LD  = 0x00
	BPF_JMP = 0x05
	BPF_RET = 0x06
	BPF_W   = 0x00
	BPF_ABS = 0x20
	BPF_JEQ = 0x10
	BPF_K   = 0x00
)

// Seccomp data offsets, per struct seccomp_data.
const (
	offsetNR   = 0
	offsetArch = 4
)

// AUDIT_ARCH_X86_64 is the only architecture this sandbox runs on; a syscall
// made under any other architecture personality is killed outright.
const AUDIT_ARCH_X86_64 = 0xc000003e

// sockFprog is the BPF program structure passed to prctl(PR_SET_SECCOMP, ...).
type sockFprog struct {
	Len    uint16
	Filter *sockFilter
}

// sockFilter is a single BPF instruction.
type sockFilter struct {
	Code uint16
	Jt   uint8
	Jf   uint8
	K    uint32
}

// bpfStmt creates a non-jumping BPF statement.
func bpfStmt(code uint16, k uint32) sockFilter {
	return sockFilter{Code: code, Jt: 0, Jf: 0, K: k}
}

// bpfJump creates a BPF jump instruction.
func bpfJump(code uint16, k uint32, jt, jf uint8) sockFilter {
	return sockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}

// Build compiles an allow-list into a BPF program: check architecture, kill
// on mismatch, load the syscall number, allow each listed syscall, and kill
// the process for anything else.
func Build(allowed []string) ([]sockFilter, error) {
	var filter []sockFilter

	filter = append(filter, bpfStmt(BPF_LD|BPF_W|BPF_ABS, offsetArch))
	filter = append(filter, bpfJump(BPF_JMP|BPF_JEQ|BPF_K, AUDIT_ARCH_X86_64, 1, 0))
	filter = append(filter, bpfStmt(BPF_RET|BPF_K, SECCOMP_RET_KILL_PROCESS))

	filter = append(filter, bpfStmt(BPF_LD|BPF_W|BPF_ABS, offsetNR))

	for _, name := range allowed {
		nr, ok := SyscallNumber(name)
		if !ok {
			return nil, sberrors.New(sberrors.KindSetup, "build filter", fmt.Sprintf("unknown syscall %q", name))
		}
		filter = append(filter, bpfJump(BPF_JMP|BPF_JEQ|BPF_K, uint32(nr), 0, 1))
		filter = append(filter, bpfStmt(BPF_RET|BPF_K, SECCOMP_RET_ALLOW))
	}

	filter = append(filter, bpfStmt(BPF_RET|BPF_K, SECCOMP_RET_KILL_PROCESS))

	return filter, nil
}

// Install sets no_new_privs and loads the given filter as the calling
// thread's seccomp filter. Once installed, the thread and every descendant
// can make only the listed syscalls, so a setup step that needs any other
// syscall has to run before it.
func Install(allowed []string) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_PRCTL, PR_SET_NO_NEW_PRIVS, 1, 0); errno != 0 {
		return sberrors.WrapDetail(errno, sberrors.KindSetup, "install filter", "prctl(PR_SET_NO_NEW_PRIVS)")
	}

	filter, err := Build(allowed)
	if err != nil {
		return err
	}
	if len(filter) == 0 {
		return sberrors.New(sberrors.KindSetup, "install filter", "empty filter")
	}

	prog := sockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}

	_, _, errno := syscall.Syscall(syscall.SYS_PRCTL,
		PR_SET_SECCOMP,
		SECCOMP_MODE_FILTER,
		uintptr(unsafe.Pointer(&prog)))
	if errno != 0 {
		return sberrors.WrapDetail(errno, sberrors.KindSetup, "install filter", "prctl(PR_SET_SECCOMP)")
	}

	return nil
}
