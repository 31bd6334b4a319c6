package feed

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EngagementCounts holds the three count maps for a batch of posts. Ids
// absent from a map count as zero.
type EngagementCounts struct {
	Replies map[int64]int64
	Likes   map[int64]int64
	Reposts map[int64]int64
}

func (c *EngagementCounts) RepliesFor(postID int64) int64 { return c.Replies[postID] }
func (c *EngagementCounts) LikesFor(postID int64) int64   { return c.Likes[postID] }
func (c *EngagementCounts) RepostsFor(postID int64) int64 { return c.Reposts[postID] }

// EngagementCounter batch-computes reply, like and repost counts. The three
// aggregations have no ordering dependency and always run concurrently.
type EngagementCounter struct {
	posts Posts
	likes Likes
	log   *logrus.Logger
}

func NewEngagementCounter(posts Posts, likes Likes, log *logrus.Logger) *EngagementCounter {
	return &EngagementCounter{posts: posts, likes: likes, log: log}
}

func (c *EngagementCounter) CountReplies(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	return c.posts.CountRepliesForPosts(ctx, postIDs)
}

func (c *EngagementCounter) CountLikes(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	return c.likes.CountLikesForPosts(ctx, postIDs)
}

func (c *EngagementCounter) CountReposts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	return c.posts.CountRepostsForPosts(ctx, postIDs)
}

// CountAll runs the three aggregations concurrently and joins the results.
// A failed aggregation degrades to zero counts for its relation instead of
// failing the batch.
func (c *EngagementCounter) CountAll(ctx context.Context, postIDs []int64) *EngagementCounts {
	counts := &EngagementCounts{
		Replies: map[int64]int64{},
		Likes:   map[int64]int64{},
		Reposts: map[int64]int64{},
	}
	if len(postIDs) == 0 {
		return counts
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		replies, err := c.CountReplies(gctx, postIDs)
		if err != nil {
			c.log.WithError(err).Warn("reply count batch failed")
			return nil
		}
		counts.Replies = replies
		return nil
	})
	g.Go(func() error {
		likes, err := c.CountLikes(gctx, postIDs)
		if err != nil {
			c.log.WithError(err).Warn("like count batch failed")
			return nil
		}
		counts.Likes = likes
		return nil
	})
	g.Go(func() error {
		reposts, err := c.CountReposts(gctx, postIDs)
		if err != nil {
			c.log.WithError(err).Warn("repost count batch failed")
			return nil
		}
		counts.Reposts = reposts
		return nil
	})

	_ = g.Wait()
	return counts
}
