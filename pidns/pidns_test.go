package pidns

import (
	"syscall"
	"testing"
)

func TestSysProcAttr_SetsPIDNamespaceAndSession(t *testing.T) {
	attr := SysProcAttr()
	if attr.Cloneflags&syscall.CLONE_NEWPID == 0 {
		t.Error("expected CLONE_NEWPID to be set")
	}
	if !attr.Setsid {
		t.Error("expected Setsid to be true")
	}
}
