// Package storage implements the persistence collaborator over SQLite via
// GORM. The store exposes exactly the operations the comparison engine and
// the leaderboard aggregator require; schema management is AutoMigrate over
// the domain entities.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"summarycmp/internal/domain"
)

// Store is the SQLite-backed persistence layer.
type Store struct {
	db  *gorm.DB
	log *logrus.Logger
}

// Open opens (or creates) the SQLite database at path, migrates the schema,
// and returns a ready store.
func Open(path string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.ProviderModel{},
		&domain.ComparisonSession{},
		&domain.SummaryResult{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// SeedProviderModels inserts the catalog models when the provider model
// table is still empty. An already-seeded table is left untouched.
func (s *Store) SeedProviderModels(ctx context.Context, models []domain.ProviderModel) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.ProviderModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count provider models: %w", err)
	}
	if count > 0 {
		return nil
	}
	if len(models) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("seed provider models: %w", err)
	}
	s.log.WithField("count", len(models)).Info("seeded provider model catalog")
	return nil
}

// EnabledProviderModels lists enabled provider models ordered by display
// name.
func (s *Store) EnabledProviderModels(ctx context.Context) ([]domain.ProviderModel, error) {
	var models []domain.ProviderModel
	err := s.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Order("display_name").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list enabled provider models: %w", err)
	}
	return models, nil
}

// CreateSession persists a new comparison session.
func (s *Store) CreateSession(ctx context.Context, session *domain.ComparisonSession) error {
	if err := s.db.WithContext(ctx).Omit("Results").Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// CreateResults persists a session's results as one atomic batch, so a
// partial session is never observable.
func (s *Store) CreateResults(ctx context.Context, results []domain.SummaryResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&results).Error; err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	return nil
}

// GetSession loads a session with its results and each result's provider
// model. Returns domain.ErrSessionNotFound for unknown ids.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*domain.ComparisonSession, error) {
	var session domain.ComparisonSession
	err := s.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Results.ProviderModel").
		First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// SaveRanking writes the rank and unacceptable flag of every result plus
// the session's ranked flag and completion time in one transaction.
func (s *Store) SaveRanking(ctx context.Context, session *domain.ComparisonSession) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range session.Results {
			result := &session.Results[i]
			err := tx.Model(&domain.SummaryResult{}).
				Where("id = ?", result.ID).
				Updates(map[string]any{
					"user_rank":       result.UserRank,
					"is_unacceptable": result.IsUnacceptable,
				}).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&domain.ComparisonSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]any{
				"is_ranked":    session.IsRanked,
				"completed_at": session.CompletedAt,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("save ranking: %w", err)
	}
	return nil
}

// RecentSessions lists sessions newest first, limited to count, with
// results and provider models attached.
func (s *Store) RecentSessions(ctx context.Context, count int) ([]domain.ComparisonSession, error) {
	var sessions []domain.ComparisonSession
	err := s.db.WithContext(ctx).
		Preload("Results.ProviderModel").
		Order("created_at DESC").
		Limit(count).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return sessions, nil
}

// AllSessions lists every session newest first. Administrative use.
func (s *Store) AllSessions(ctx context.Context) ([]domain.ComparisonSession, error) {
	var sessions []domain.ComparisonSession
	err := s.db.WithContext(ctx).
		Preload("Results.ProviderModel").
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and cascades to its results. Deleting an
// unknown session is a no-op.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&domain.SummaryResult{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.ComparisonSession{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ToggleResultFlag flips the unacceptable flag of a single result.
// Administrative use; unknown ids are a no-op.
func (s *Store) ToggleResultFlag(ctx context.Context, resultID uint) error {
	var result domain.SummaryResult
	err := s.db.WithContext(ctx).First(&result, "id = ?", resultID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&result).
		Update("is_unacceptable", !result.IsUnacceptable).Error
	if err != nil {
		return fmt.Errorf("toggle result flag: %w", err)
	}
	return nil
}

// AllResults lists every result across every session, joined to its
// provider model and owning session, for leaderboard aggregation. The read
// is an unlocked snapshot and may trail concurrently completing sessions.
func (s *Store) AllResults(ctx context.Context) ([]domain.SummaryResult, error) {
	var results []domain.SummaryResult
	err := s.db.WithContext(ctx).
		Preload("ProviderModel").
		Preload("Session").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}
