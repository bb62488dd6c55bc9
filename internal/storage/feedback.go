package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/model"
)

// SaveOutcome persists a delivered project's actual outcome, keyed by
// proposal id.
func (s *SQLiteStorage) SaveOutcome(ctx context.Context, outcome *model.ActualOutcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOutcome(outcome); err != nil {
		return err
	}

	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes (proposal_id, project_id, body, recorded_at)
		VALUES (?, ?, ?, ?)`,
		outcome.ProposalID, outcome.ProjectID, string(body),
		outcome.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

// GetOutcome retrieves the outcome recorded for a proposal.
func (s *SQLiteStorage) GetOutcome(ctx context.Context, proposalID string) (*model.ActualOutcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(proposalID, "proposalID"); err != nil {
		return nil, err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM outcomes WHERE proposal_id = ?`, proposalID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outcome for proposal %s: %w", proposalID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}

	var outcome model.ActualOutcome
	if err := json.Unmarshal([]byte(body), &outcome); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return &outcome, nil
}

// ListOutcomes returns recorded outcomes, most recent first. A limit of zero
// or less returns everything.
func (s *SQLiteStorage) ListOutcomes(ctx context.Context, limit int) ([]model.ActualOutcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT body FROM outcomes ORDER BY recorded_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []model.ActualOutcome
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		var outcome model.ActualOutcome
		if err := json.Unmarshal([]byte(body), &outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// SaveTrainingExample persists a derived training example for the trainer.
func (s *SQLiteStorage) SaveTrainingExample(ctx context.Context, example *model.TrainingExample) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if example == nil {
		return fmt.Errorf("%w: example", ErrNilParameter)
	}
	if example.Proposal.ID == "" {
		return fmt.Errorf("%w: missing proposal ID", ErrNilParameter)
	}

	body, err := json.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal training example: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO training_examples (proposal_id, body, created_at)
		VALUES (?, ?, ?)`,
		example.Proposal.ID, string(body),
		example.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert training example: %w", err)
	}
	return nil
}

// ListTrainingExamples returns persisted training examples in creation order.
// With pendingOnly set, only examples not yet consumed by a training run are
// returned.
func (s *SQLiteStorage) ListTrainingExamples(ctx context.Context, pendingOnly bool) ([]model.TrainingExample, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT body FROM training_examples`
	if pendingOnly {
		query += ` WHERE consumed_at IS NULL`
	}
	query += ` ORDER BY created_at, proposal_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query training examples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var examples []model.TrainingExample
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		var example model.TrainingExample
		if err := json.Unmarshal([]byte(body), &example); err != nil {
			return nil, fmt.Errorf("failed to unmarshal training example: %w", err)
		}
		examples = append(examples, example)
	}
	return examples, rows.Err()
}

// MarkTrainingExamplesConsumed stamps the given examples as consumed by a
// training run, removing them from the pending set.
func (s *SQLiteStorage) MarkTrainingExamplesConsumed(ctx context.Context, proposalIDs []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(proposalIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(proposalIDs)), ",")
	args := make([]any, 0, len(proposalIDs)+1)
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range proposalIDs {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE training_examples SET consumed_at = ? WHERE proposal_id IN (%s)`, placeholders),
		args...)
	if err != nil {
		return fmt.Errorf("failed to mark training examples consumed: %w", err)
	}
	return nil
}
