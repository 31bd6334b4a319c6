package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"microblog/internal/dbmysql"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrHandleTaken        = errors.New("handle already exists")
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrAlreadyFollowing   = errors.New("already following")
	ErrNotFollowing       = errors.New("not following")
)

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *dbmysql.Profile) error
	GetProfileByID(ctx context.Context, userID string) (*dbmysql.Profile, error)
	GetProfileByHandle(ctx context.Context, handle string) (*dbmysql.Profile, error)
	UpdateProfile(ctx context.Context, profile *dbmysql.Profile) error
	CheckHandleExists(ctx context.Context, handle string) (bool, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) CreateProfile(ctx context.Context, profile *dbmysql.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) GetProfileByID(ctx context.Context, userID string) (*dbmysql.Profile, error) {
	var profile dbmysql.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetProfileByHandle(ctx context.Context, handle string) (*dbmysql.Profile, error) {
	var profile dbmysql.Profile
	err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateProfile(ctx context.Context, profile *dbmysql.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *profileRepository) CheckHandleExists(ctx context.Context, handle string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Profile{}).
		Where("handle = ?", handle).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
