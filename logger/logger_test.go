package logger

import "testing"

func TestInitFallsBackToInfo(t *testing.T) {
	Init("not-a-level")
	if log == nil {
		t.Fatal("log not initialized")
	}
	if log.Level.String() != "info" {
		t.Fatalf("expected info fallback, got %s", log.Level)
	}
}

func TestLogFunctions(t *testing.T) {
	Init("debug")
	// Avoid os.Exit on Fatal
	log.ExitFunc = func(int) {}

	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	Debugf("%s", "debugf")
	Infof("%s", "infof")
	Warnf("%s", "warnf")
	Errorf("%s", "errorf")
	Fatal("fatal")
	Fatalf("%s", "fatalf")
}

func TestEnsureInitializesLazily(t *testing.T) {
	log = nil
	Info("lazy init")
	if log == nil {
		t.Fatal("expected lazy initialization")
	}
}
