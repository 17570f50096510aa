package seccomp

import "testing"

func TestCompile_ExcludesKillTgkillMkdirChroot(t *testing.T) {
	excluded := []string{"kill", "tgkill", "mkdir", "chroot"}
	for _, name := range excluded {
		for _, s := range Compile {
			if s == name {
				t.Errorf("Compile allow-list should not contain %q", name)
			}
		}
	}
}

func TestCompile_IsSubsetOfMaster(t *testing.T) {
	master := make(map[string]bool, len(Master))
	for _, s := range Master {
		master[s] = true
	}
	for _, s := range Compile {
		if !master[s] {
			t.Errorf("Compile contains %q which is not in Master", s)
		}
	}
}

func TestRun_ExactAllowList(t *testing.T) {
	want := map[string]bool{
		"execve": true, "exit": true, "exit_group": true,
		"mmap": true, "munmap": true, "write": true,
	}
	if len(Run) != len(want) {
		t.Fatalf("Run has %d entries, want %d", len(Run), len(want))
	}
	for _, s := range Run {
		if !want[s] {
			t.Errorf("Run contains unexpected syscall %q", s)
		}
	}
}

func TestSyscallNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"read", 0, true},
		{"execve", 59, true},
		{"chroot", 161, true},
		{"not_a_syscall", 0, false},
	}
	for _, tt := range tests {
		got, ok := SyscallNumber(tt.name)
		if ok != tt.ok {
			t.Errorf("SyscallNumber(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("SyscallNumber(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMasterAndRunSyscallsAreKnown(t *testing.T) {
	for _, name := range Master {
		if _, ok := SyscallNumber(name); !ok {
			t.Errorf("Master syscall %q has no known number", name)
		}
	}
	for _, name := range Run {
		if _, ok := SyscallNumber(name); !ok {
			t.Errorf("Run syscall %q has no known number", name)
		}
	}
}
