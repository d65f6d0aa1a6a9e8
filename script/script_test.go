package script

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.wasm")
	if err := os.WriteFile(path, []byte{0, 'a', 's', 'm'}, 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if src.Name != "app.wasm" || src.Path != path || len(src.Bytes) != 4 {
		t.Errorf("unexpected source: %+v", src)
	}
	if len(src.Digest()) != 12 {
		t.Errorf("digest %q should be 12 hex chars", src.Digest())
	}

	if err := os.WriteFile(path, []byte{1, 2}, 0o644); err != nil {
		t.Fatal(err)
	}
	again, err := src.Reread()
	if err != nil {
		t.Fatalf("Reread: %v", err)
	}
	if again.Digest() == src.Digest() {
		t.Error("digest should change with content")
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.wasm")); err == nil {
		t.Error("missing file should fail")
	}
	empty := filepath.Join(dir, "empty.wasm")
	_ = os.WriteFile(empty, nil, 0o644)
	if _, err := ReadFile(empty); err == nil {
		t.Error("empty file should fail")
	}

	inline := Source{Name: "inline", Bytes: []byte{1}}
	if got, err := inline.Reread(); err != nil || got.Name != "inline" {
		t.Errorf("Reread of inline source = %+v, %v", got, err)
	}
}
