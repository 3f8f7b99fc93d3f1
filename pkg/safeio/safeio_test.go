package safeio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanUserPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain relative", "out/report.json", false},
		{"dot segments collapse", "./out/./report.json", false},
		{"traversal rejected", "../secrets", true},
		{"embedded traversal rejected", "out/../../etc/passwd", true},
		{"absolute allowed", "/tmp/out", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanUserPath(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("CleanUserPath(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Errorf("CleanUserPath(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestReadFileContained(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "mod", "go.mod")
	if err := os.MkdirAll(filepath.Dir(inside), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inside, []byte("module example.com/x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFileContained(base, inside)
	if err != nil {
		t.Fatalf("contained read failed: %v", err)
	}
	if string(data) != "module example.com/x\n" {
		t.Errorf("unexpected content: %q", data)
	}

	outside := filepath.Join(base, "..", "escape.txt")
	if _, err := ReadFileContained(base, outside); err == nil {
		t.Error("read outside baseDir must fail")
	}
}

func TestWriteFilePreservePerms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edges.csv")

	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFilePreservePerms(path, []byte("new")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode()&0o777 != 0o600 {
		t.Errorf("mode = %v, want 0600 preserved", st.Mode())
	}

	fresh := filepath.Join(dir, "fresh.txt")
	if err := WriteFilePreservePerms(fresh, []byte("x")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	st, err = os.Stat(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode()&0o777 != 0o644 {
		t.Errorf("mode = %v, want default 0644", st.Mode())
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing dir failed: %v", err)
	}
}
