package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quillback/autoscout/internal/model"
)

// SaveModel persists a trained model version.
func (s *SQLiteStorage) SaveModel(ctx context.Context, m *model.TrainedModel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateModel(m); err != nil {
		return err
	}

	weights, err := json.Marshal(m.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	var metadata sql.NullString
	if len(m.Metadata) > 0 {
		data, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trained_models (kind, version, trained_at, training_set_size, accuracy, weights, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(m.Kind), m.Version, m.TrainedAt.UTC().Format(time.RFC3339Nano),
		m.TrainingSetSize, m.Accuracy, string(weights), metadata)
	if err != nil {
		return fmt.Errorf("failed to insert model: %w", err)
	}
	return nil
}

// GetLatestModel returns the highest-versioned model of the given kind, or
// nil (no error) when none has been trained yet.
func (s *SQLiteStorage) GetLatestModel(ctx context.Context, kind model.ModelKind) (*model.TrainedModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m := &model.TrainedModel{Kind: kind}
	var trainedAt, weights string
	var metadata sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT version, trained_at, training_set_size, accuracy, weights, metadata
		FROM trained_models WHERE kind = ? ORDER BY version DESC LIMIT 1`, string(kind)).
		Scan(&m.Version, &trainedAt, &m.TrainingSetSize, &m.Accuracy, &weights, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest model: %w", err)
	}

	m.TrainedAt, err = time.Parse(time.RFC3339Nano, trainedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trained_at: %w", err)
	}
	if err := json.Unmarshal([]byte(weights), &m.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return m, nil
}
