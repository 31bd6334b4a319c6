package feed

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"microblog/internal/dbmysql"
)

// FeedItem is a post hydrated for display: author identity, first-hop quote,
// and engagement counts.
type FeedItem struct {
	Post        dbmysql.Post `json:"post"`
	Author      Identity     `json:"author"`
	Quote       *QuoteNode   `json:"quote,omitempty"`
	ReplyCount  int64        `json:"reply_count"`
	LikeCount   int64        `json:"like_count"`
	RepostCount int64        `json:"repost_count"`
	Edited      bool         `json:"edited"`
}

// FeedAssembler turns an ordered post list into renderable feed items with a
// fixed number of bulk lookups regardless of feed length: one quoted-post
// fetch plus three count aggregations (concurrent), then one profile fetch
// over the union of authors.
type FeedAssembler struct {
	quotes     *QuoteChainResolver
	identities *IdentityResolver
	counter    *EngagementCounter
	log        *logrus.Logger
}

func NewFeedAssembler(quotes *QuoteChainResolver, identities *IdentityResolver, counter *EngagementCounter, log *logrus.Logger) *FeedAssembler {
	return &FeedAssembler{quotes: quotes, identities: identities, counter: counter, log: log}
}

// Assemble hydrates posts in their given order; the output order always
// matches the input. A failed lookup degrades its slice of the result
// (fallback identity, Unavailable quote, zero counts) without aborting the
// rest.
func (a *FeedAssembler) Assemble(ctx context.Context, posts []dbmysql.Post) ([]FeedItem, error) {
	if len(posts) == 0 {
		return []FeedItem{}, nil
	}

	postIDs := make([]int64, 0, len(posts))
	quotedIDs := make([]int64, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.PostID)
		if p.QuotedPostID != nil {
			quotedIDs = append(quotedIDs, *p.QuotedPostID)
		}
	}

	var (
		quoted map[int64]dbmysql.Post
		counts *EngagementCounts
	)

	// The quote batch and the three count batches have no data dependency on
	// each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := a.quotes.ResolveMany(gctx, quotedIDs)
		if err != nil {
			a.log.WithError(err).Warn("quoted post batch failed")
			m = map[int64]dbmysql.Post{}
		}
		quoted = m
		return nil
	})
	g.Go(func() error {
		counts = a.counter.CountAll(gctx, postIDs)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// One author fetch covers post authors and quoted-post authors alike.
	authorIDs := make([]string, 0, len(posts)+len(quoted))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.UserID)
	}
	for _, qp := range quoted {
		authorIDs = append(authorIDs, qp.UserID)
	}

	identities, err := a.identities.Resolve(ctx, authorIDs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.WithError(err).Warn("author batch failed")
		identities = map[string]Identity{}
	}

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		item := FeedItem{
			Post:        p,
			Author:      authorOrFallback(identities, p.UserID),
			ReplyCount:  counts.RepliesFor(p.PostID),
			LikeCount:   counts.LikesFor(p.PostID),
			RepostCount: counts.RepostsFor(p.PostID),
			Edited:      p.Edited(),
		}
		if p.QuotedPostID != nil {
			item.Quote = a.quoteNode(p, quoted, identities)
		}
		items = append(items, item)
	}
	return items, nil
}

func (a *FeedAssembler) quoteNode(p dbmysql.Post, quoted map[int64]dbmysql.Post, identities map[string]Identity) *QuoteNode {
	quotedID := *p.QuotedPostID

	if quotedID == p.PostID {
		return &QuoteNode{State: QuoteCircular}
	}

	qp, ok := quoted[quotedID]
	if !ok {
		return &QuoteNode{State: QuoteUnavailable}
	}

	node := &QuoteNode{
		State:  QuoteResolved,
		Post:   &qp,
		Author: authorOrFallback(identities, qp.UserID),
	}
	// Offer the next hop for on-demand expansion unless it points back into
	// this item's own two-post path.
	if next := qp.QuotedPostID; next != nil && *next != qp.PostID && *next != p.PostID {
		node.QuotedPostID = next
	}
	return node
}

func authorOrFallback(identities map[string]Identity, userID string) Identity {
	if id, ok := identities[userID]; ok {
		return id
	}
	return FallbackIdentity(userID)
}
