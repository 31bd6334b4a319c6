package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"microblog/internal/dbmysql"
)

// EngagementState is the per (post, viewer) toggle state, derived at load
// time from existence probes. Anonymous viewers are pinned to the zero value.
type EngagementState struct {
	Liked      bool   `json:"liked"`
	Reposted   bool   `json:"reposted"`
	MyRepostID *int64 `json:"my_repost_id,omitempty"`
}

// LikeResult reports the authoritative state after a toggle and the count
// delta the caller applies locally.
type LikeResult struct {
	Liked bool `json:"liked"`
	Delta int  `json:"delta"`
}

// RepostAction tells the caller how to continue a repost toggle. The
// "not reposted" direction is completed by the quote-compose flow, not by the
// toggle itself.
type RepostAction string

const (
	// RepostRemovalPending: the viewer already reposted; removal is
	// destructive and needs explicit confirmation before RemoveRepost.
	RepostRemovalPending RepostAction = "removal_pending"
	// RepostComposeRequired: no repost exists; the caller opens the
	// quote-compose flow, whose success creates the repost post.
	RepostComposeRequired RepostAction = "compose_required"
)

// RepostDecision is the outcome of the first step of a repost toggle.
type RepostDecision struct {
	Action   RepostAction `json:"action"`
	RepostID *int64       `json:"repost_id,omitempty"`
}

// EngagementReconciler owns the idempotent like/repost toggles. Toggles
// re-derive current state from the store before acting, so a retry is safe;
// overlapping invocations by the same viewer on the same post are dropped
// while one is in flight.
type EngagementReconciler struct {
	posts Posts
	likes Likes

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewEngagementReconciler(posts Posts, likes Likes) *EngagementReconciler {
	return &EngagementReconciler{
		posts:    posts,
		likes:    likes,
		inFlight: map[string]struct{}{},
	}
}

func (r *EngagementReconciler) acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[key]; busy {
		return false
	}
	r.inFlight[key] = struct{}{}
	return true
}

func (r *EngagementReconciler) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, key)
}

// ToggleLike flips the viewer's like on a post. The liked state is re-derived
// from the authoritative existence probe at toggle time, never from the
// caller's possibly stale view, so rapid repeated activation cannot double
// count. A failed write commits no state change.
func (r *EngagementReconciler) ToggleLike(ctx context.Context, postID int64, viewerID string) (*LikeResult, error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}

	key := fmt.Sprintf("like:%d:%s", postID, viewerID)
	if !r.acquire(key) {
		// Suppressed invocations are dropped, not queued.
		return nil, ErrBusy
	}
	defer r.release(key)

	liked, err := r.likes.HasLiked(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}

	if liked {
		if err := r.likes.RemoveLike(ctx, viewerID, postID); err != nil {
			return nil, err
		}
		return &LikeResult{Liked: false, Delta: -1}, nil
	}

	if err := r.likes.AddLike(ctx, &dbmysql.Like{UserID: viewerID, PostID: postID}); err != nil {
		return nil, err
	}
	return &LikeResult{Liked: true, Delta: +1}, nil
}

// ToggleRepost starts a repost toggle. Unlike likes this is a two-step,
// externally completed operation: removal needs viewer confirmation, and the
// repost direction is completed by the quote-compose flow's success.
func (r *EngagementReconciler) ToggleRepost(ctx context.Context, postID int64, viewerID string) (*RepostDecision, error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}

	existing, err := r.posts.FindRepostByViewer(ctx, postID, viewerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		id := existing.PostID
		return &RepostDecision{Action: RepostRemovalPending, RepostID: &id}, nil
	}
	return &RepostDecision{Action: RepostComposeRequired}, nil
}

// RemoveRepost deletes the viewer's repost of postID after the caller has
// confirmed the (irreversible) removal. State is re-derived here, so a repost
// already removed elsewhere yields ErrNotFound rather than a double delete.
func (r *EngagementReconciler) RemoveRepost(ctx context.Context, postID int64, viewerID string) error {
	if viewerID == "" {
		return ErrUnauthenticated
	}

	key := fmt.Sprintf("repost:%d:%s", postID, viewerID)
	if !r.acquire(key) {
		return ErrBusy
	}
	defer r.release(key)

	existing, err := r.posts.FindRepostByViewer(ctx, postID, viewerID)
	if err != nil {
		return err
	}
	return r.posts.DeletePost(ctx, existing.PostID)
}

// State probes the like and repost relations for the viewer. The two probes
// are independent reads and run concurrently. Anonymous viewers skip the
// probes entirely.
func (r *EngagementReconciler) State(ctx context.Context, postID int64, viewerID string) (*EngagementState, error) {
	state := &EngagementState{}
	if viewerID == "" {
		return state, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		liked, err := r.likes.HasLiked(gctx, viewerID, postID)
		if err != nil {
			return err
		}
		state.Liked = liked
		return nil
	})
	g.Go(func() error {
		repost, err := r.posts.FindRepostByViewer(gctx, postID, viewerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		id := repost.PostID
		state.Reposted = true
		state.MyRepostID = &id
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return state, nil
}
