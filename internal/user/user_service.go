package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"microblog/internal/common"
	"microblog/internal/dbmysql"
)

// MediaStore uploads a blob and returns its public URL. Satisfied by the
// GridFS-backed media storage.
type MediaStore interface {
	Upload(ctx context.Context, uploaderID, fileName, mimeType string, data []byte) (string, error)
}

// CacheInvalidator drops a user's cached display metadata after a profile
// mutation. A nil invalidator is valid.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// FollowCounts bundles the two follow aggregates shown on a profile page.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

type UserService interface {
	Register(ctx context.Context, handle, email, password string) (*dbmysql.Profile, string, error)
	Login(ctx context.Context, handle, password string) (*dbmysql.Profile, string, error)
	GetProfile(ctx context.Context, userID string) (*dbmysql.Profile, error)
	UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (*dbmysql.Profile, error)
	UpdateAvatar(ctx context.Context, userID, fileName, mimeType string, data []byte) (string, error)
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	FollowState(ctx context.Context, followerID string, targetIDs []string) (map[string]bool, error)
	GetFollowCounts(ctx context.Context, userID string) (*FollowCounts, error)
}

type userService struct {
	profileRepo ProfileRepository
	followRepo  FollowRepository
	media       MediaStore
	cache       CacheInvalidator
	log         *logrus.Logger
}

func NewUserService(profileRepo ProfileRepository, followRepo FollowRepository, media MediaStore, cache CacheInvalidator, log *logrus.Logger) UserService {
	return &userService{
		profileRepo: profileRepo,
		followRepo:  followRepo,
		media:       media,
		cache:       cache,
		log:         log,
	}
}

// Register creates the account and its profile row in one step; every
// principal has a profile from the moment it exists.
func (s *userService) Register(ctx context.Context, handle, email, password string) (*dbmysql.Profile, string, error) {
	if err := common.ValidateHandle(handle); err != nil {
		return nil, "", err
	}
	if err := common.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	exists, err := s.profileRepo.CheckHandleExists(ctx, handle)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrHandleTaken
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	profile := &dbmysql.Profile{
		UserID:       uuid.NewString(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.profileRepo.CreateProfile(ctx, profile); err != nil {
		return nil, "", err
	}

	token, err := common.GenerateToken(profile.UserID, profile.Handle)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

func (s *userService) Login(ctx context.Context, handle, password string) (*dbmysql.Profile, string, error) {
	if handle == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	profile, err := s.profileRepo.GetProfileByHandle(ctx, handle)
	if err != nil {
		if err == ErrNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := common.CheckPassword(password, profile.PasswordHash); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := common.GenerateToken(profile.UserID, profile.Handle)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*dbmysql.Profile, error) {
	return s.profileRepo.GetProfileByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (*dbmysql.Profile, error) {
	profile, err := s.profileRepo.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if displayName != nil {
		if err := common.ValidateDisplayName(*displayName); err != nil {
			return nil, err
		}
		profile.DisplayName = displayName
	}
	if bio != nil {
		if err := common.ValidateBio(*bio); err != nil {
			return nil, err
		}
		profile.Bio = bio
	}

	if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return profile, nil
}

// UpdateAvatar stores the (client-cropped) image and links its URL to the
// profile.
func (s *userService) UpdateAvatar(ctx context.Context, userID, fileName, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("avatar file is empty")
	}

	profile, err := s.profileRepo.GetProfileByID(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := s.media.Upload(ctx, userID, fileName, mimeType, data)
	if err != nil {
		return "", fmt.Errorf("avatar upload failed: %w", err)
	}

	profile.AvatarURL = &url
	if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
		return "", err
	}
	s.invalidate(ctx, userID)
	return url, nil
}

func (s *userService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("profile cache invalidation failed")
	}
}

func (s *userService) Follow(ctx context.Context, followerID, followingID string) error {
	if _, err := s.profileRepo.GetProfileByID(ctx, followingID); err != nil {
		return err
	}
	return s.followRepo.Follow(ctx, followerID, followingID)
}

func (s *userService) Unfollow(ctx context.Context, followerID, followingID string) error {
	return s.followRepo.Unfollow(ctx, followerID, followingID)
}

func (s *userService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followingID)
}

// FollowState answers "does follower follow each of targetIDs" in one probe,
// for rendering follow buttons on profile lists.
func (s *userService) FollowState(ctx context.Context, followerID string, targetIDs []string) (map[string]bool, error) {
	return s.followRepo.BatchIsFollowing(ctx, followerID, targetIDs)
}

func (s *userService) GetFollowCounts(ctx context.Context, userID string) (*FollowCounts, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FollowCounts{Followers: followers, Following: following}, nil
}
