package feed

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"microblog/internal/dbmysql"
)

type FeedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// --------- POSTS ---------

type Posts interface {
	CreatePost(ctx context.Context, post *dbmysql.Post) error
	GetPostByID(ctx context.Context, id int64) (*dbmysql.Post, error)
	GetPostsByIDs(ctx context.Context, ids []int64) ([]dbmysql.Post, error)
	ListLatestPosts(ctx context.Context, limit int) ([]dbmysql.Post, error)
	ListUserPosts(ctx context.Context, userID string, limit int) ([]dbmysql.Post, error)
	ListReplies(ctx context.Context, parentID int64) ([]dbmysql.Post, error)
	UpdatePostContent(ctx context.Context, id int64, content string) error
	DeletePost(ctx context.Context, id int64) error
	CountRepliesForPosts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
	CountRepostsForPosts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
	FindRepostByViewer(ctx context.Context, quotedPostID int64, userID string) (*dbmysql.Post, error)
}

func (r *FeedRepository) CreatePost(ctx context.Context, post *dbmysql.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *FeedRepository) GetPostByID(ctx context.Context, id int64) (*dbmysql.Post, error) {
	var post dbmysql.Post
	err := r.db.WithContext(ctx).First(&post, "post_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *FeedRepository) GetPostsByIDs(ctx context.Context, ids []int64) ([]dbmysql.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Find(&posts).Error
	return posts, err
}

// ListLatestPosts returns the newest top-level posts. Replies do not appear
// on timelines, reposts do.
func (r *FeedRepository) ListLatestPosts(ctx context.Context, limit int) ([]dbmysql.Post, error) {
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *FeedRepository) ListUserPosts(ctx context.Context, userID string, limit int) ([]dbmysql.Post, error) {
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_id IS NULL", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *FeedRepository) ListReplies(ctx context.Context, parentID int64) ([]dbmysql.Post, error) {
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&posts).Error
	return posts, err
}

func (r *FeedRepository) UpdatePostContent(ctx context.Context, id int64, content string) error {
	result := r.db.WithContext(ctx).
		Model(&dbmysql.Post{}).
		Where("post_id = ?", id).
		Update("content", content)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FeedRepository) DeletePost(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&dbmysql.Post{}, "post_id = ?", id).Error
}

type postCount struct {
	PostID int64
	Total  int64
}

func (r *FeedRepository) CountRepliesForPosts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	if len(postIDs) == 0 {
		return map[int64]int64{}, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Post{}).
		Select("parent_id AS post_id, COUNT(*) AS total").
		Where("parent_id IN ?", postIDs).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

func (r *FeedRepository) CountRepostsForPosts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	if len(postIDs) == 0 {
		return map[int64]int64{}, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Post{}).
		Select("quoted_post_id AS post_id, COUNT(*) AS total").
		Where("quoted_post_id IN ?", postIDs).
		Group("quoted_post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

// FindRepostByViewer returns the viewer's repost of quotedPostID, or
// ErrNotFound. At most one such post exists per (viewer, quoted post).
func (r *FeedRepository) FindRepostByViewer(ctx context.Context, quotedPostID int64, userID string) (*dbmysql.Post, error) {
	var post dbmysql.Post
	err := r.db.WithContext(ctx).
		Where("quoted_post_id = ? AND user_id = ?", quotedPostID, userID).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func countMap(rows []postCount) map[int64]int64 {
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.PostID] = row.Total
	}
	return out
}

// --------- LIKES ---------

type Likes interface {
	AddLike(ctx context.Context, like *dbmysql.Like) error
	RemoveLike(ctx context.Context, userID string, postID int64) error
	HasLiked(ctx context.Context, userID string, postID int64) (bool, error)
	CountLikesForPosts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
}

func (r *FeedRepository) AddLike(ctx context.Context, like *dbmysql.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *FeedRepository) RemoveLike(ctx context.Context, userID string, postID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&dbmysql.Like{}).Error
}

func (r *FeedRepository) HasLiked(ctx context.Context, userID string, postID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FeedRepository) CountLikesForPosts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	if len(postIDs) == 0 {
		return map[int64]int64{}, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Like{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

// --------- PROFILES ---------

type Profiles interface {
	GetProfilesByIDs(ctx context.Context, ids []string) ([]dbmysql.Profile, error)
}

func (r *FeedRepository) GetProfilesByIDs(ctx context.Context, ids []string) ([]dbmysql.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []dbmysql.Profile
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&profiles).Error
	return profiles, err
}
