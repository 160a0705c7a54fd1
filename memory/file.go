package memory

import (
	"context"
	"os"

	"github.com/petasbytes/go-assistant/internal/safety"
)

// FileStore writes one JSON transcript per session under a root directory.
type FileStore struct {
	root string
}

// NewFileStore resolves dir (creating it if needed) as the store root.
func NewFileStore(dir string) (*FileStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	root, err := safety.InitSandboxRoot(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(sessionID string) (string, error) {
	if err := safety.ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return safety.ValidateRelPath(s.root, sessionID+".json")
}

func (s *FileStore) Load(_ context.Context, sessionID string) (Conversation, error) {
	p, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}
	return LoadConversation(p)
}

func (s *FileStore) Save(_ context.Context, sessionID string, conv Conversation) error {
	p, err := s.path(sessionID)
	if err != nil {
		return err
	}
	return SaveConversation(p, conv)
}
