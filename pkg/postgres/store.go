package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrNoFreeNumbers is returned when the phone pool has no unassigned entry.
	ErrNoFreeNumbers = errors.New("no available phone numbers")
)

// Store is the persistence surface the handlers depend on.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	AssignPhoneNumber(ctx context.Context, userID string) (string, error)

	LogConversation(ctx context.Context, log *ConversationLog) error
	GetHistory(ctx context.Context, userID string, limit, offset int) ([]ConversationLog, error)

	SeedPhoneNumbers(ctx context.Context, numbers []string) (int, error)
	Ping(ctx context.Context) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("phone_number = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return &user, nil
}

// AssignPhoneNumber hands the user one number from the pool. The whole
// transition runs in one transaction with the candidate pool row locked
// (SKIP LOCKED), so concurrent onboarding requests can never hand out
// the same number. A user who already holds a number gets it back
// unchanged with no pool mutation.
func (s *GormStore) AssignPhoneNumber(ctx context.Context, userID string) (string, error) {
	var assigned string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		if user.PhoneNumber != nil && *user.PhoneNumber != "" {
			assigned = *user.PhoneNumber
			return nil
		}

		var entry PhonePoolEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("assigned = ?", false).
			Order("id ASC").
			First(&entry).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoFreeNumbers
			}
			return fmt.Errorf("failed to pick pool number: %w", err)
		}

		entry.Assigned = true
		entry.AssignedTo = &user.ID
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("failed to mark number assigned: %w", err)
		}

		user.PhoneNumber = &entry.Number
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to store assigned number: %w", err)
		}

		assigned = entry.Number
		return nil
	})
	if err != nil {
		return "", err
	}

	return assigned, nil
}

func (s *GormStore) LogConversation(ctx context.Context, log *ConversationLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to save conversation log: %w", err)
	}
	return nil
}

// GetHistory returns the user's conversation log, most recent first.
func (s *GormStore) GetHistory(ctx context.Context, userID string, limit, offset int) ([]ConversationLog, error) {
	if limit <= 0 {
		limit = 5
	}
	if offset < 0 {
		offset = 0
	}

	var logs []ConversationLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return logs, nil
}

// SeedPhoneNumbers inserts pool entries, skipping ones already present.
// Returns how many rows were actually inserted.
func (s *GormStore) SeedPhoneNumbers(ctx context.Context, numbers []string) (int, error) {
	inserted := 0
	for _, n := range numbers {
		entry := PhonePoolEntry{Number: n}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "number"}}, DoNothing: true}).
			Create(&entry)
		if res.Error != nil {
			return inserted, fmt.Errorf("failed to seed number %s: %w", n, res.Error)
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
