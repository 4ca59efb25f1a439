package scanner

import "testing"

func TestDefaultExclusionsDirs(t *testing.T) {
	rules := DefaultExclusions(nil, nil)
	for _, dir := range []string{".git", "node_modules", "venv", "__pycache__", ".vscode"} {
		if rules.ShouldDescend(dir) {
			t.Fatalf("expected %s to be excluded", dir)
		}
	}
	for _, dir := range []string{"src", "cmd", "internal", "gitops"} {
		if !rules.ShouldDescend(dir) {
			t.Fatalf("expected %s to be traversed", dir)
		}
	}
}

func TestDefaultExclusionsExtensions(t *testing.T) {
	rules := DefaultExclusions(nil, nil)
	for _, path := range []string{"logo.png", "assets/FONT.WOFF2", "report.pdf", "bin/tool.exe"} {
		if rules.ShouldRead(path) {
			t.Fatalf("expected %s to be skipped", path)
		}
	}
	for _, path := range []string{"main.go", "config.yaml", "Makefile", ".env"} {
		if !rules.ShouldRead(path) {
			t.Fatalf("expected %s to be readable", path)
		}
	}
}

func TestExclusionRulesExtras(t *testing.T) {
	rules := DefaultExclusions([]string{"vendor"}, []string{"parquet", ".lock"})
	if rules.ShouldDescend("vendor") {
		t.Fatal("extra dir not excluded")
	}
	if rules.ShouldRead("data.parquet") {
		t.Fatal("extension without dot not normalized")
	}
	if rules.ShouldRead("Cargo.lock") {
		t.Fatal("extra extension not excluded")
	}
	// Built-ins still apply.
	if rules.ShouldDescend(".git") || rules.ShouldRead("a.png") {
		t.Fatal("built-in exclusions lost")
	}
}

func TestExclusionRulesIndependentValues(t *testing.T) {
	strict := NewExclusionRules([]string{"src"}, nil)
	relaxed := NewExclusionRules(nil, nil)
	if strict.ShouldDescend("src") {
		t.Fatal("strict should exclude src")
	}
	if !relaxed.ShouldDescend("src") {
		t.Fatal("relaxed should not exclude src")
	}
}
