package buildinfo

import "testing"

func TestBinaryVersionDefault(t *testing.T) {
	if BinaryVersion == "" {
		t.Error("BinaryVersion must never be empty")
	}
}

func TestModuleVersionDoesNotPanic(t *testing.T) {
	// Value depends on how the test binary was built; only the call matters.
	_ = ModuleVersion()
	_ = Commit()
}
