// Package safety confines on-disk session state to a single root directory.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PolicyError is a machine-readable rejection, rendered as compact JSON.
type PolicyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e PolicyError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

const maxSessionIDLen = 128

// InitSandboxRoot resolves root to an absolute, symlink-free path.
// An empty root means the current working directory.
func InitSandboxRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(root): %w", err)
	}
	// Fall back to the absolute path when the root does not exist yet.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidateSessionID accepts ids made of letters, digits, '-' and '_' only,
// so an id can never name anything but a single file under the root.
func ValidateSessionID(id string) error {
	if id == "" || len(id) > maxSessionIDLen {
		return PolicyError{Code: "ERR_INVALID_SESSION_ID", Message: "session id must be 1-128 characters"}
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return PolicyError{Code: "ERR_INVALID_SESSION_ID", Message: "session id contains a disallowed character"}
		}
	}
	return nil
}

// ValidateRelPath resolves relPath against absRoot and returns an absolute path
// inside it. Absolute inputs, parent traversal and symlink escapes are rejected.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", PolicyError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	candidate := filepath.Join(absRoot, cleaned)

	// Resolve the whole candidate if it exists, otherwise its parent, so a
	// symlinked ancestor cannot hide an escape.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else {
		parent := filepath.Dir(candidate)
		if resolvedParent, err2 := filepath.EvalSymlinks(parent); err2 == nil {
			candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
		}
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", PolicyError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "requested path resolves outside the store root"}
	}
	return candidate, nil
}
