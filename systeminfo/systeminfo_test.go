package systeminfo

import (
	"runtime"
	"testing"
)

func TestCollect(t *testing.T) {
	info := Collect()
	if info == nil {
		t.Fatal("nil system info")
	}
	if info.OS != runtime.GOOS {
		t.Fatalf("os: %s", info.OS)
	}
	if info.CPUs < 1 {
		t.Fatalf("cpus: %d", info.CPUs)
	}
}
