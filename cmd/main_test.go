package main

import (
	"testing"

	"credscan/config"
)

func TestProgressVisible(t *testing.T) {
	t.Setenv("CREDSCAN_DISABLE_PROGRESS", "")
	if !progressVisible(&config.Config{}) {
		t.Fatal("progress should be visible by default")
	}
	if progressVisible(&config.Config{NoProgress: true}) {
		t.Fatal("flag should disable progress")
	}
	for _, v := range []string{"1", "true", "YES", " on "} {
		t.Setenv("CREDSCAN_DISABLE_PROGRESS", v)
		if progressVisible(&config.Config{}) {
			t.Fatalf("env value %q should disable progress", v)
		}
	}
	t.Setenv("CREDSCAN_DISABLE_PROGRESS", "0")
	if !progressVisible(&config.Config{}) {
		t.Fatal("env value 0 should not disable progress")
	}
}

func TestNewProgressBar(t *testing.T) {
	if newProgressBar(-1) == nil {
		t.Fatal("spinner bar is nil")
	}
	if newProgressBar(100) == nil {
		t.Fatal("sized bar is nil")
	}
}
