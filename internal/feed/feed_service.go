package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"microblog/internal/common"
	"microblog/internal/dbmysql"
)

const DefaultTimelineLimit = 50

// MediaStore uploads a blob and returns a publicly resolvable URL for it.
// Satisfied by the GridFS-backed media storage.
type MediaStore interface {
	Upload(ctx context.Context, uploaderID, fileName, mimeType string, data []byte) (string, error)
}

// Thread is a post page: the root post plus its replies in ascending order.
type Thread struct {
	Root    FeedItem   `json:"root"`
	Replies []FeedItem `json:"replies"`
}

type FeedUsecase interface {
	CreatePost(ctx context.Context, authorID, content string, fileData []byte, fileName, mimeType string) (int64, error)
	CreateReply(ctx context.Context, authorID string, parentID int64, content string, fileData []byte, fileName, mimeType string) (int64, error)
	CreateQuote(ctx context.Context, authorID string, quotedPostID int64, content string, fileData []byte, fileName, mimeType string) (int64, error)
	EditPost(ctx context.Context, authorID string, postID int64, content string) error
	DeletePost(ctx context.Context, authorID string, postID int64) error

	HomeTimeline(ctx context.Context, limit int) ([]FeedItem, error)
	UserTimeline(ctx context.Context, userID string, limit int) ([]FeedItem, error)
	Thread(ctx context.Context, postID int64) (*Thread, error)
	ExpandQuote(ctx context.Context, quotedPostID int64, visitedIDs []int64) *QuoteNode

	ToggleLike(ctx context.Context, postID int64, viewerID string) (*LikeResult, error)
	ToggleRepost(ctx context.Context, postID int64, viewerID string) (*RepostDecision, error)
	RemoveRepost(ctx context.Context, postID int64, viewerID string) error
	EngagementState(ctx context.Context, postID int64, viewerID string) (*EngagementState, error)
}

type FeedService struct {
	postRepo   Posts
	likeRepo   Likes
	media      MediaStore
	assembler  *FeedAssembler
	quotes     *QuoteChainResolver
	reconciler *EngagementReconciler
	log        *logrus.Logger
}

func NewFeedService(p Posts, l Likes, media MediaStore, assembler *FeedAssembler, quotes *QuoteChainResolver, reconciler *EngagementReconciler, log *logrus.Logger) *FeedService {
	return &FeedService{
		postRepo:   p,
		likeRepo:   l,
		media:      media,
		assembler:  assembler,
		quotes:     quotes,
		reconciler: reconciler,
		log:        log,
	}
}

// --------- WRITES ---------

func (s *FeedService) createPost(ctx context.Context, post *dbmysql.Post, fileData []byte, fileName, mimeType string) (int64, error) {
	if post.UserID == "" {
		return 0, ErrUnauthenticated
	}
	if err := common.ValidatePostContent(post.Content); err != nil {
		return 0, err
	}

	// Upload media first so a failed upload never leaves a post behind.
	if len(fileData) > 0 {
		url, err := s.media.Upload(ctx, post.UserID, fileName, mimeType, fileData)
		if err != nil {
			return 0, fmt.Errorf("media upload failed: %w", err)
		}
		post.MediaURL = &url
	}

	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return 0, err
	}
	return post.PostID, nil
}

func (s *FeedService) CreatePost(ctx context.Context, authorID, content string, fileData []byte, fileName, mimeType string) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(fileData) == 0 {
		return 0, errors.New("post must have text or file data")
	}

	post := &dbmysql.Post{UserID: authorID, Content: content}
	return s.createPost(ctx, post, fileData, fileName, mimeType)
}

func (s *FeedService) CreateReply(ctx context.Context, authorID string, parentID int64, content string, fileData []byte, fileName, mimeType string) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(fileData) == 0 {
		return 0, errors.New("reply must have text or file data")
	}

	// The reply target must exist at insert time.
	if _, err := s.postRepo.GetPostByID(ctx, parentID); err != nil {
		return 0, err
	}

	post := &dbmysql.Post{UserID: authorID, Content: content, ParentID: &parentID}
	return s.createPost(ctx, post, fileData, fileName, mimeType)
}

// CreateQuote creates a repost of quotedPostID. Empty content and no media is
// a pure repost; anything else is a quote-repost. This is the success event
// that completes the reconciler's "not reposted -> reposted" transition.
func (s *FeedService) CreateQuote(ctx context.Context, authorID string, quotedPostID int64, content string, fileData []byte, fileName, mimeType string) (int64, error) {
	if _, err := s.postRepo.GetPostByID(ctx, quotedPostID); err != nil {
		return 0, err
	}

	// At most one repost per (author, quoted post).
	if _, err := s.postRepo.FindRepostByViewer(ctx, quotedPostID, authorID); err == nil {
		return 0, errors.New("post already reposted")
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	post := &dbmysql.Post{
		UserID:       authorID,
		Content:      strings.TrimSpace(content),
		QuotedPostID: &quotedPostID,
	}
	return s.createPost(ctx, post, fileData, fileName, mimeType)
}

func (s *FeedService) EditPost(ctx context.Context, authorID string, postID int64, content string) error {
	if authorID == "" {
		return ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("post content must not be empty")
	}
	if err := common.ValidatePostContent(content); err != nil {
		return err
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != authorID {
		return ErrForbidden
	}

	return s.postRepo.UpdatePostContent(ctx, postID, content)
}

// DeletePost removes the author's post. Likes and reposts referencing it
// become dangling and are tolerated by the resolvers, not cascaded here.
func (s *FeedService) DeletePost(ctx context.Context, authorID string, postID int64) error {
	if authorID == "" {
		return ErrUnauthenticated
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != authorID {
		return ErrForbidden
	}

	return s.postRepo.DeletePost(ctx, postID)
}

// --------- READS ---------

func (s *FeedService) HomeTimeline(ctx context.Context, limit int) ([]FeedItem, error) {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	posts, err := s.postRepo.ListLatestPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(ctx, posts)
}

func (s *FeedService) UserTimeline(ctx context.Context, userID string, limit int) ([]FeedItem, error) {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	posts, err := s.postRepo.ListUserPosts(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(ctx, posts)
}

// Thread loads a post and its replies and assembles them in one pass, so the
// whole page costs the same fixed number of bulk lookups as a timeline.
func (s *FeedService) Thread(ctx context.Context, postID int64) (*Thread, error) {
	root, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	replies, err := s.postRepo.ListReplies(ctx, postID)
	if err != nil {
		return nil, err
	}

	all := make([]dbmysql.Post, 0, len(replies)+1)
	all = append(all, *root)
	all = append(all, replies...)

	items, err := s.assembler.Assemble(ctx, all)
	if err != nil {
		return nil, err
	}

	return &Thread{Root: items[0], Replies: items[1:]}, nil
}

// ExpandQuote resolves one more hop of a quote chain on viewer request.
// visitedIDs is the chain already on screen; expanding into it surfaces a
// circular-reference node instead of recursing.
func (s *FeedService) ExpandQuote(ctx context.Context, quotedPostID int64, visitedIDs []int64) *QuoteNode {
	return s.quotes.ResolveOneHop(ctx, quotedPostID, NewVisitedSet(visitedIDs...))
}

// --------- ENGAGEMENT ---------

func (s *FeedService) ToggleLike(ctx context.Context, postID int64, viewerID string) (*LikeResult, error) {
	return s.reconciler.ToggleLike(ctx, postID, viewerID)
}

func (s *FeedService) ToggleRepost(ctx context.Context, postID int64, viewerID string) (*RepostDecision, error) {
	return s.reconciler.ToggleRepost(ctx, postID, viewerID)
}

func (s *FeedService) RemoveRepost(ctx context.Context, postID int64, viewerID string) error {
	return s.reconciler.RemoveRepost(ctx, postID, viewerID)
}

func (s *FeedService) EngagementState(ctx context.Context, postID int64, viewerID string) (*EngagementState, error) {
	return s.reconciler.State(ctx, postID, viewerID)
}
