package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"videosummary/internal/apperrors"
	"videosummary/models"
)

const DefaultSessionTable = "sessions"

// Querier is satisfied by both *supabase.Client and *postgrest.Client.
type Querier interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseStore keeps sessions in a PostgREST table, one row per session
// with JSONB columns for subtitles, translations and chat.
type SupabaseStore struct {
	client Querier
	table  string
	logger logrus.FieldLogger
}

func NewSupabaseStore(client Querier, table string, logger logrus.FieldLogger) *SupabaseStore {
	if table == "" {
		table = DefaultSessionTable
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SupabaseStore{client: client, table: table, logger: logger}
}

func (s *SupabaseStore) Upsert(ctx context.Context, session *models.VideoSession) error {
	const op = "db.Upsert"
	if err := ctx.Err(); err != nil {
		return apperrors.E(apperrors.PersistenceFailure, op, err)
	}
	rec, err := models.NewSessionRecord(session)
	if err != nil {
		return apperrors.E(apperrors.PersistenceFailure, op, err)
	}

	_, _, err = s.client.From(s.table).Insert(rec, true, "id", "minimal", "").Execute()
	if err != nil {
		s.logger.WithFields(logrus.Fields{"session_id": session.ID, "error": err}).Error("failed to upsert session")
		return apperrors.E(apperrors.PersistenceFailure, op, fmt.Errorf("upsert session %s: %w", session.ID, err))
	}
	return nil
}

func (s *SupabaseStore) Get(ctx context.Context, id string) (*models.VideoSession, error) {
	const op = "db.Get"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, err)
	}
	body, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, fmt.Errorf("fetch session %s: %w", id, err))
	}

	var recs []models.SessionRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, fmt.Errorf("decode session %s: %w", id, err))
	}
	if len(recs) == 0 {
		return nil, apperrors.Errorf(apperrors.NotFound, op, "session %s", id)
	}
	session, err := recs[0].Session()
	if err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, err)
	}
	return session, nil
}

func (s *SupabaseStore) List(ctx context.Context) ([]*models.VideoSession, error) {
	const op = "db.List"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, err)
	}
	body, _, err := s.client.From(s.table).
		Select("*", "", false).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, fmt.Errorf("list sessions: %w", err))
	}

	var recs []models.SessionRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, apperrors.E(apperrors.PersistenceFailure, op, fmt.Errorf("decode sessions: %w", err))
	}
	out := make([]*models.VideoSession, 0, len(recs))
	for _, rec := range recs {
		session, err := rec.Session()
		if err != nil {
			s.logger.WithFields(logrus.Fields{"session_id": rec.ID, "error": err}).Warn("skipping unreadable session row")
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, id string) error {
	const op = "db.Delete"
	if err := ctx.Err(); err != nil {
		return apperrors.E(apperrors.PersistenceFailure, op, err)
	}
	if _, _, err := s.client.From(s.table).Delete("minimal", "").Eq("id", id).Execute(); err != nil {
		return apperrors.E(apperrors.PersistenceFailure, op, fmt.Errorf("delete session %s: %w", id, err))
	}
	return nil
}
