package safety_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/petasbytes/go-assistant/internal/safety"
)

func TestValidateRelPath_BasicRejections(t *testing.T) {
	root := t.TempDir()

	// Absolute path should be rejected (OS-independent)
	abs, err := filepath.Abs(".")
	if err != nil {
		t.Skipf("cannot compute absolute path: %v", err)
	}
	if _, err := safety.ValidateRelPath(root, abs); err == nil {
		t.Fatal("expected error for absolute path")
	}

	if _, err := safety.ValidateRelPath(root, "../../x"); err == nil {
		t.Fatal("expected error for parent traversal")
	}
	if _, err := safety.ValidateRelPath(root, "."); err == nil {
		t.Fatal("expected error for the root itself")
	}
}

func TestValidateRelPath_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	link := filepath.Join(root, "out")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink not allowed on this FS: %v", err)
	}

	if _, err := safety.ValidateRelPath(root, "out/escape.json"); err == nil {
		t.Fatal("expected reject for symlink escape")
	} else if !strings.Contains(err.Error(), "ERR_PATH_OUTSIDE_SANDBOX") {
		t.Fatalf("expected ERR_PATH_OUTSIDE_SANDBOX, got %v", err)
	}
}

func TestValidateRelPath_AllowNormal(t *testing.T) {
	root, err := safety.InitSandboxRoot(t.TempDir())
	if err != nil {
		t.Fatalf("init root: %v", err)
	}
	p, err := safety.ValidateRelPath(root, "abc.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		t.Fatalf("resolved path %q not under root %q", p, root)
	}
}

func TestValidateSessionID(t *testing.T) {
	cases := []struct {
		id string
		ok bool
	}{
		{"0b9f4c1e-8a5e-4a35-9d43-0d7b2b1f6c11", true},
		{"kitchen_panel", true},
		{"", false},
		{"../etc/passwd", false},
		{"a/b", false},
		{"with space", false},
		{strings.Repeat("x", 129), false},
	}
	for _, tc := range cases {
		err := safety.ValidateSessionID(tc.id)
		if (err == nil) != tc.ok {
			t.Errorf("ValidateSessionID(%q) err=%v, want ok=%v", tc.id, err, tc.ok)
		}
		if err != nil && !strings.Contains(err.Error(), "ERR_INVALID_SESSION_ID") {
			t.Errorf("unexpected error code: %v", err)
		}
	}
}
