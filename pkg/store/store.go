// Package store persists lectures and amendements with gorm, on sqlite or
// postgres. Upserts go through the reconciliation diff so that
// operator-entered fields are never overwritten by re-ingestion.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/config"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/reconcile"
)

// ErrLectureExists is returned when registering a lecture twice.
var ErrLectureExists = errors.New("lecture already exists")

// Store is the persistence layer.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger

	locksMu sync.Mutex
	locks   map[amendement.Scope]*sync.Mutex
}

// Open connects to the database configured in cfg.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return New(db, log), nil
}

// New wraps an open gorm connection.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, logger: log, locks: make(map[amendement.Scope]*sync.Mutex)}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&LectureRecord{}, &AmendementRecord{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func scopeQuery(scope amendement.Scope) map[string]any {
	return map[string]any{
		"chambre":   string(scope.Chambre),
		"session":   scope.Session,
		"num_texte": scope.NumTexte,
		"organe":    scope.Organe,
	}
}

// CreateLecture registers a lecture. Registering the same scope twice
// returns ErrLectureExists.
func (s *Store) CreateLecture(ctx context.Context, lecture LectureRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&LectureRecord{}).Where(scopeQuery(lecture.Scope())).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up lecture: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrLectureExists, lecture.Scope())
		}
		if err := tx.Create(&lecture).Error; err != nil {
			return fmt.Errorf("failed to create lecture: %w", err)
		}
		return nil
	})
}

// LectureExists reports whether a lecture is registered for scope.
func (s *Store) LectureExists(ctx context.Context, scope amendement.Scope) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&LectureRecord{}).Where(scopeQuery(scope)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up lecture: %w", err)
	}
	return count > 0, nil
}

// GetLecture returns the lecture registered for scope, or an error
// wrapping errs.ErrNotFound.
func (s *Store) GetLecture(ctx context.Context, scope amendement.Scope) (*LectureRecord, error) {
	var lecture LectureRecord
	err := s.db.WithContext(ctx).Where(scopeQuery(scope)).First(&lecture).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lecture %s", errs.ErrNotFound, scope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lecture: %w", err)
	}
	return &lecture, nil
}

// ListLectures returns every lecture, most recent texts first within each
// chamber.
func (s *Store) ListLectures(ctx context.Context) ([]LectureRecord, error) {
	var lectures []LectureRecord
	err := s.db.WithContext(ctx).
		Order("chambre").
		Order("session desc").
		Order("num_texte desc").
		Order("organe").
		Find(&lectures).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lectures: %w", err)
	}
	return lectures, nil
}

// LoadScope returns the persisted amendements of scope keyed by identity.
func (s *Store) LoadScope(ctx context.Context, scope amendement.Scope) (map[amendement.Key]amendement.Amendement, error) {
	return loadScope(s.db.WithContext(ctx), scope)
}

func loadScope(db *gorm.DB, scope amendement.Scope) (map[amendement.Key]amendement.Amendement, error) {
	var records []AmendementRecord
	if err := db.Where(scopeQuery(scope)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load amendements of %s: %w", scope, err)
	}
	persisted := make(map[amendement.Key]amendement.Amendement, len(records))
	for _, record := range records {
		a := record.toAmendement()
		persisted[a.Key()] = a
	}
	return persisted, nil
}

// ListAmendements returns the amendements of scope in display order:
// scheduled ones by position, then the others, each by number.
func (s *Store) ListAmendements(ctx context.Context, scope amendement.Scope) ([]amendement.Amendement, error) {
	var records []AmendementRecord
	err := s.db.WithContext(ctx).
		Where(scopeQuery(scope)).
		Order("CASE WHEN position IS NULL THEN 1 ELSE 0 END").
		Order("position").
		Order("num").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list amendements of %s: %w", scope, err)
	}
	amendements := make([]amendement.Amendement, len(records))
	for recordIndex, record := range records {
		amendements[recordIndex] = record.toAmendement()
	}
	return amendements, nil
}

func (s *Store) scopeLock(scope amendement.Scope) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[scope] = lock
	}
	return lock
}

// Upsert reconciles incoming with the persisted amendements of scope in
// one transaction. Upserts of the same scope are serialized; different
// scopes proceed independently.
func (s *Store) Upsert(ctx context.Context, scope amendement.Scope, incoming []amendement.Amendement, opts reconcile.DiffOptions) (*reconcile.Diff, error) {
	for _, a := range incoming {
		if a.Scope() != scope {
			return nil, errs.Invariant("amendement %s outside scope %s", a.Key(), scope)
		}
	}

	lock := s.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	var diff *reconcile.Diff
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		persisted, err := loadScope(tx, scope)
		if err != nil {
			return err
		}

		diff, err = reconcile.DiffAndUpsert(incoming, persisted, opts)
		if err != nil {
			return err
		}

		if len(diff.Added) > 0 {
			records := make([]AmendementRecord, len(diff.Added))
			for addedIndex, a := range diff.Added {
				records[addedIndex] = toRecord(a)
			}
			if err := tx.CreateInBatches(&records, 100).Error; err != nil {
				return fmt.Errorf("failed to insert amendements: %w", err)
			}
		}

		now := time.Now()
		for _, update := range diff.Updated {
			record := toRecord(update.Amendement)
			record.UpdatedAt = now
			columns := []string{"updated_at"}
			for _, change := range update.Changes {
				columns = append(columns, string(change.Field))
			}
			if err := tx.Model(&record).Select(columns).Updates(&record).Error; err != nil {
				return fmt.Errorf("failed to update amendement %s: %w", update.Amendement.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("amendements upserted",
		zap.Stringer("scope", scope),
		zap.Int("added", len(diff.Added)),
		zap.Int("updated", len(diff.Updated)),
		zap.Int("unchanged", len(diff.Unchanged)))
	return diff, nil
}

// SetReponse stores the operator-entered fields of one amendement.
func (s *Store) SetReponse(ctx context.Context, key amendement.Key, reponse amendement.Reponse) error {
	query := scopeQuery(key.Scope())
	query["num"] = key.Num
	result := s.db.WithContext(ctx).Model(&AmendementRecord{}).Where(query).Updates(map[string]any{
		"avis":         reponse.Avis,
		"observations": reponse.Observations,
		"reponse":      reponse.Reponse,
		"updated_at":   time.Now(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to set reponse of %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: amendement %s", errs.ErrNotFound, key)
	}
	return nil
}
