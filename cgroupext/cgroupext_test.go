package cgroupext

import "testing"

func TestValidateKey_RejectsPathTraversal(t *testing.T) {
	bad := []string{"", "..", ".", "../../etc/passwd", "foo/bar", "foo\\bar", ".hidden"}
	for _, k := range bad {
		if err := validateKey(k); err == nil {
			t.Errorf("validateKey(%q) = nil, want error", k)
		}
	}
}

func TestValidateKey_AcceptsKnownControllerFiles(t *testing.T) {
	good := []string{"pids.max", "memory.max", "cpu.max", "cpuset.cpus", "cgroup.procs"}
	for _, k := range good {
		if err := validateKey(k); err != nil {
			t.Errorf("validateKey(%q) = %v, want nil", k, err)
		}
	}
}

func TestLeave_NilGroupIsNoop(t *testing.T) {
	var g *Group
	g.Leave()
}
