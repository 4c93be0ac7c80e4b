package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/types"
)

// ErrInvalidProgressStatus is returned before any row is touched when a
// progress update carries a value outside the allowed enum.
var ErrInvalidProgressStatus = errors.New("invalid progress status")

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.Session) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Session, error)

	// UpdateProgress reports whether a row was actually affected, so
	// callers can tell an unknown id apart from a successful update.
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) (bool, error)

	// UpdateActions replaces the whole action log. Callers append to
	// their local copy and hand over the full list.
	UpdateActions(ctx context.Context, tx *gorm.DB, id uuid.UUID, actions []string) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if session == nil {
		return fmt.Errorf("nil session")
	}
	if len(session.Actions) == 0 {
		session.Actions = types.EmptyActions()
	}
	return transaction.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var session types.Session
	err := transaction.WithContext(ctx).
		Where("session_id = ?", id).
		Limit(1).
		Find(&session).Error
	if err != nil {
		return nil, err
	}
	if session.SessionID == uuid.Nil {
		return nil, nil
	}
	return &session, nil
}

func (r *sessionRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) (bool, error) {
	if !types.ValidSessionProgress(status) {
		return false, fmt.Errorf("%w: %q", ErrInvalidProgressStatus, status)
	}
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Session{}).
		Where("session_id = ?", id).
		Update("progress", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) UpdateActions(ctx context.Context, tx *gorm.DB, id uuid.UUID, actions []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	encoded, err := types.EncodeActions(actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}
	return transaction.WithContext(ctx).
		Model(&types.Session{}).
		Where("session_id = ?", id).
		Update("actions", encoded).Error
}
