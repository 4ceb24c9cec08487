// Package share stores read-only session snapshots as JSON files.
package share

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/models"
)

const DefaultDir = "shared"

// Store writes one <id>.json file per snapshot under Dir. Ids are random
// UUIDs and are validated before touching the filesystem.
type Store struct {
	Dir    string
	logger logrus.FieldLogger
}

func NewStore(dir string, logger logrus.FieldLogger) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{Dir: dir, logger: logger}
}

// Save persists snap and returns its new share id.
func (s *Store) Save(snap models.ShareSnapshot) (string, error) {
	const op = "share.Save"
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", apperrors.E(apperrors.Internal, op, fmt.Errorf("create share dir: %w", err))
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", apperrors.E(apperrors.Internal, op, err)
	}

	id := uuid.NewString()
	tmp, err := os.CreateTemp(s.Dir, ".share-*")
	if err != nil {
		return "", apperrors.E(apperrors.Internal, op, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", apperrors.E(apperrors.Internal, op, err)
	}
	if err := tmp.Close(); err != nil {
		return "", apperrors.E(apperrors.Internal, op, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return "", apperrors.E(apperrors.Internal, op, err)
	}

	s.logger.WithFields(logrus.Fields{"share_id": id, "session_id": snap.ID}).Info("share snapshot saved")
	return id, nil
}

// Load reads the snapshot with id. A malformed id is InvalidInput and an
// unknown one NotFound.
func (s *Store) Load(id string) (*models.ShareSnapshot, error) {
	const op = "share.Load"
	if id == "" {
		return nil, apperrors.Errorf(apperrors.InvalidInput, op, "id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.Errorf(apperrors.InvalidInput, op, "malformed share id %q", id)
	}

	body, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Errorf(apperrors.NotFound, op, "share %s does not exist", id)
	}
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, op, err)
	}

	var snap models.ShareSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, apperrors.E(apperrors.Internal, op, fmt.Errorf("decode share %s: %w", id, err))
	}
	return &snap, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}
