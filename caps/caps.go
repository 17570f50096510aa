// Package caps drops every Linux capability the session driver holds:
// bounding set, effective, permitted, inheritable, and ambient. The sandbox
// grants no capability to untrusted code, so there is no OCI-style
// per-capability configuration here, only an all-or-nothing drop.
package caps

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	sberrors "myrbox/errors"
)

// Capability numbers, from linux/capability.h. Kept for diagnostics (Name
// maps a number to its canonical name); nothing in the session path
// references them individually.
const (
	CAP_CHOWN              = 0
	CAP_DAC_OVERRIDE       = 1
	CAP_DAC_READ_SEARCH    = 2
	CAP_FOWNER             = 3
	CAP_FSETID             = 4
	CAP_KILL               = 5
	CAP_SETGID             = 6
	CAP_SETUID             = 7
	CAP_SETPCAP            = 8
	CAP_LINUX_IMMUTABLE    = 9
	CAP_NET_BIND_SERVICE   = 10
	CAP_NET_BROADCAST      = 11
	CAP_NET_ADMIN          = 12
	CAP_NET_RAW            = 13
	CAP_IPC_LOCK           = 14
	CAP_IPC_OWNER          = 15
	CAP_SYS_MODULE         = 16
	CAP_SYS_RAWIO          = 17
	CAP_SYS_CHROOT         = 18
	CAP_SYS_PTRACE         = 19
	CAP_SYS_PACCT          = 20
	CAP_SYS_ADMIN          = 21
	CAP_SYS_BOOT           = 22
	CAP_SYS_NICE           = 23
	CAP_SYS_RESOURCE       = 24
	CAP_SYS_TIME           = 25
	CAP_SYS_TTY_CONFIG     = 26
	CAP_MKNOD              = 27
	CAP_LEASE              = 28
	CAP_AUDIT_WRITE        = 29
	CAP_AUDIT_CONTROL      = 30
	CAP_SETFCAP            = 31
	CAP_MAC_OVERRIDE       = 32
	CAP_MAC_ADMIN          = 33
	CAP_SYSLOG             = 34
	CAP_WAKE_ALARM         = 35
	CAP_BLOCK_SUSPEND      = 36
	CAP_AUDIT_READ         = 37
	CAP_PERFMON            = 38
	CAP_BPF                = 39
	CAP_CHECKPOINT_RESTORE = 40
)

var nameByNumber = map[int]string{
	CAP_CHOWN: "CAP_CHOWN", CAP_DAC_OVERRIDE: "CAP_DAC_OVERRIDE",
	CAP_DAC_READ_SEARCH: "CAP_DAC_READ_SEARCH", CAP_FOWNER: "CAP_FOWNER",
	CAP_FSETID: "CAP_FSETID", CAP_KILL: "CAP_KILL", CAP_SETGID: "CAP_SETGID",
	CAP_SETUID: "CAP_SETUID", CAP_SETPCAP: "CAP_SETPCAP",
	CAP_LINUX_IMMUTABLE: "CAP_LINUX_IMMUTABLE", CAP_NET_BIND_SERVICE: "CAP_NET_BIND_SERVICE",
	CAP_NET_BROADCAST: "CAP_NET_BROADCAST", CAP_NET_ADMIN: "CAP_NET_ADMIN",
	CAP_NET_RAW: "CAP_NET_RAW", CAP_IPC_LOCK: "CAP_IPC_LOCK", CAP_IPC_OWNER: "CAP_IPC_OWNER",
	CAP_SYS_MODULE: "CAP_SYS_MODULE", CAP_SYS_RAWIO: "CAP_SYS_RAWIO",
	CAP_SYS_CHROOT: "CAP_SYS_CHROOT", CAP_SYS_PTRACE: "CAP_SYS_PTRACE",
	CAP_SYS_PACCT: "CAP_SYS_PACCT", CAP_SYS_ADMIN: "CAP_SYS_ADMIN",
	CAP_SYS_BOOT: "CAP_SYS_BOOT", CAP_SYS_NICE: "CAP_SYS_NICE",
	CAP_SYS_RESOURCE: "CAP_SYS_RESOURCE", CAP_SYS_TIME: "CAP_SYS_TIME",
	CAP_SYS_TTY_CONFIG: "CAP_SYS_TTY_CONFIG", CAP_MKNOD: "CAP_MKNOD",
	CAP_LEASE: "CAP_LEASE", CAP_AUDIT_WRITE: "CAP_AUDIT_WRITE",
	CAP_AUDIT_CONTROL: "CAP_AUDIT_CONTROL", CAP_SETFCAP: "CAP_SETFCAP",
	CAP_MAC_OVERRIDE: "CAP_MAC_OVERRIDE", CAP_MAC_ADMIN: "CAP_MAC_ADMIN",
	CAP_SYSLOG: "CAP_SYSLOG", CAP_WAKE_ALARM: "CAP_WAKE_ALARM",
	CAP_BLOCK_SUSPEND: "CAP_BLOCK_SUSPEND", CAP_AUDIT_READ: "CAP_AUDIT_READ",
	CAP_PERFMON: "CAP_PERFMON", CAP_BPF: "CAP_BPF",
	CAP_CHECKPOINT_RESTORE: "CAP_CHECKPOINT_RESTORE",
}

const linuxCapabilityVersion3 = 0x20080522

type capHeader struct {
	Version uint32
	Pid     int32
}

type capData struct {
	Effective   uint32
	Permitted   uint32
	Inheritable uint32
}

var (
	lastCapOnce  sync.Once
	lastCapValue = CAP_CHECKPOINT_RESTORE
)

// lastCap returns the highest capability number the running kernel
// supports, detected from /proc/sys/kernel/cap_last_cap with a prctl probe
// fallback for kernels that lack it.
func lastCap() int {
	lastCapOnce.Do(func() {
		if data, err := os.ReadFile("/proc/sys/kernel/cap_last_cap"); err == nil {
			if val, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && val >= 0 {
				lastCapValue = val
				return
			}
		}
		for c := CAP_CHECKPOINT_RESTORE; c <= 63; c++ {
			if err := unix.Prctl(unix.PR_CAPBSET_READ, uintptr(c), 0, 0, 0); err != nil {
				lastCapValue = c - 1
				return
			}
		}
		lastCapValue = 63
	})
	return lastCapValue
}

// DropAll zeroes the effective, permitted, and inheritable sets, clears
// ambient capabilities, and drops every bit from the bounding set. After it
// returns, the process cannot re-acquire any capability even via a setuid
// binary, satisfying the spec's "effective and permitted are zero before
// any untrusted code executes" invariant.
func DropAll() error {
	unix.Prctl(unix.PR_CAP_AMBIENT, unix.PR_CAP_AMBIENT_CLEAR_ALL, 0, 0, 0)

	last := lastCap()
	for c := 0; c <= last; c++ {
		if err := unix.Prctl(unix.PR_CAPBSET_DROP, uintptr(c), 0, 0, 0); err != nil && err != unix.EINVAL {
			return sberrors.WrapDetail(err, sberrors.KindSetup, "drop capabilities", "bounding cap "+strconv.Itoa(c))
		}
	}

	header := capHeader{Version: linuxCapabilityVersion3, Pid: 0}
	data := [2]capData{}
	_, _, errno := unix.Syscall(unix.SYS_CAPSET,
		uintptr(unsafe.Pointer(&header)),
		uintptr(unsafe.Pointer(&data[0])),
		0)
	if errno != 0 {
		return sberrors.WrapDetail(errno, sberrors.KindSetup, "drop capabilities", "capset")
	}

	return nil
}

// Current returns the calling process's effective, permitted, and
// inheritable capability bitfields, for diagnostic reporting.
func Current() (effective, permitted, inheritable uint64, err error) {
	header := capHeader{Version: linuxCapabilityVersion3, Pid: 0}
	data := [2]capData{}

	_, _, errno := unix.Syscall(unix.SYS_CAPGET,
		uintptr(unsafe.Pointer(&header)),
		uintptr(unsafe.Pointer(&data[0])),
		0)
	if errno != 0 {
		return 0, 0, 0, sberrors.WrapDetail(errno, sberrors.KindInternal, "read capabilities", "capget")
	}

	effective = uint64(data[0].Effective) | (uint64(data[1].Effective) << 32)
	permitted = uint64(data[0].Permitted) | (uint64(data[1].Permitted) << 32)
	inheritable = uint64(data[0].Inheritable) | (uint64(data[1].Inheritable) << 32)
	return effective, permitted, inheritable, nil
}

// Name returns the canonical name for a capability number.
func Name(cap int) string {
	if name, ok := nameByNumber[cap]; ok {
		return name
	}
	return "CAP_UNKNOWN"
}
