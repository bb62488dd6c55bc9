package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/model"
)

// SaveSession persists a completed discovery session together with an index
// row per proposal, so proposals can later be looked up by id without
// scanning every session.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *model.Session) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	patterns, err := json.Marshal(session.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	painPoints, err := json.Marshal(session.PainPoints)
	if err != nil {
		return fmt.Errorf("failed to marshal pain points: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var completedAt sql.NullString
		if !session.CompletedAt.IsZero() {
			completedAt = sql.NullString{String: session.CompletedAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, started_at, completed_at, status, patterns, pain_points)
			VALUES (?, ?, ?, ?, ?, ?)`,
			session.ID,
			session.StartedAt.UTC().Format(time.RFC3339Nano),
			completedAt,
			string(session.Status),
			string(patterns),
			string(painPoints),
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		for i := range session.Proposals {
			p := &session.Proposals[i]
			body, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("failed to marshal proposal %s: %w", p.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO proposals (id, session_id, body) VALUES (?, ?, ?)`,
				p.ID, session.ID, string(body),
			); err != nil {
				return fmt.Errorf("failed to insert proposal %s: %w", p.ID, err)
			}
		}

		slog.Debug("Persisted discovery session",
			"session_id", session.ID,
			"proposals", len(session.Proposals))
		return nil
	})
}

// GetSession retrieves a discovery session by id.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT started_at, completed_at, status, patterns, pain_points
		FROM sessions WHERE id = ?`, id)

	session, err := s.scanSession(ctx, id, row)
	if err != nil {
		return nil, err
	}

	if err := s.loadProposals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the most recent sessions, newest first. A limit of
// zero or less returns all sessions.
func (s *SQLiteStorage) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, started_at, completed_at, status, patterns, pain_points
		FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.Session
	for rows.Next() {
		var id string
		var startedAt string
		var completedAt sql.NullString
		var status, patterns, painPoints string

		if err := rows.Scan(&id, &startedAt, &completedAt, &status, &patterns, &painPoints); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		session, err := buildSession(id, startedAt, completedAt, status, patterns, painPoints)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	for i := range sessions {
		if err := s.loadProposals(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// GetProposal looks up a single proposal by id across all persisted sessions.
func (s *SQLiteStorage) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM proposals WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	var proposal model.Proposal
	if err := json.Unmarshal([]byte(body), &proposal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proposal %s: %w", id, err)
	}
	return &proposal, nil
}

func (s *SQLiteStorage) scanSession(ctx context.Context, id string, row *sql.Row) (*model.Session, error) {
	var startedAt string
	var completedAt sql.NullString
	var status, patterns, painPoints string

	err := row.Scan(&startedAt, &completedAt, &status, &patterns, &painPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	_ = ctx
	return buildSession(id, startedAt, completedAt, status, patterns, painPoints)
}

func buildSession(id, startedAt string, completedAt sql.NullString, status, patterns, painPoints string) (*model.Session, error) {
	session := &model.Session{
		ID:     id,
		Status: model.SessionStatus(status),
	}

	var err error
	session.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if completedAt.Valid {
		session.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(patterns), &session.Patterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patterns: %w", err)
	}
	if err := json.Unmarshal([]byte(painPoints), &session.PainPoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pain points: %w", err)
	}
	return session, nil
}

func (s *SQLiteStorage) loadProposals(ctx context.Context, session *model.Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM proposals WHERE session_id = ? ORDER BY rowid`, session.ID)
	if err != nil {
		return fmt.Errorf("failed to query proposals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	session.Proposals = nil
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("failed to scan proposal: %w", err)
		}
		var proposal model.Proposal
		if err := json.Unmarshal([]byte(body), &proposal); err != nil {
			return fmt.Errorf("failed to unmarshal proposal: %w", err)
		}
		session.Proposals = append(session.Proposals, proposal)
	}
	return rows.Err()
}
