package feed

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"microblog/internal/dbmysql"
)

// QuoteState tags a QuoteNode.
type QuoteState string

const (
	// QuoteResolved carries the quoted post and its author.
	QuoteResolved QuoteState = "resolved"
	// QuoteUnavailable stands in for a deleted or unreadable quoted post.
	QuoteUnavailable QuoteState = "unavailable"
	// QuoteCircular marks an id already visited on the current expansion
	// path. Ordinary inserts cannot produce cycles, corrupted or adversarial
	// data can.
	QuoteCircular QuoteState = "circular"
)

// QuoteNode is one resolved hop of a quote chain. Deeper hops stay
// unresolved: QuotedPostID names the next hop for on-demand expansion.
type QuoteNode struct {
	State        QuoteState    `json:"state"`
	Post         *dbmysql.Post `json:"post,omitempty"`
	Author       Identity      `json:"author,omitempty"`
	QuotedPostID *int64        `json:"quoted_post_id,omitempty"`
}

// VisitedSet tracks post ids already expanded on the current quote chain.
type VisitedSet struct {
	ids map[int64]struct{}
}

func NewVisitedSet(ids ...int64) *VisitedSet {
	v := &VisitedSet{ids: make(map[int64]struct{}, len(ids)+1)}
	for _, id := range ids {
		v.Add(id)
	}
	return v
}

func (v *VisitedSet) Add(id int64)      { v.ids[id] = struct{}{} }
func (v *VisitedSet) Has(id int64) bool { _, ok := v.ids[id]; return ok }

// QuoteChainResolver resolves quoted posts one hop at a time.
type QuoteChainResolver struct {
	posts      Posts
	identities *IdentityResolver
	log        *logrus.Logger
}

func NewQuoteChainResolver(posts Posts, identities *IdentityResolver, log *logrus.Logger) *QuoteChainResolver {
	return &QuoteChainResolver{posts: posts, identities: identities, log: log}
}

// ResolveOneHop resolves a single quoted post for interactive expansion. It
// never returns an error: a missing post (or any lookup failure) degrades to
// Unavailable, and an id already on the expansion path degrades to Circular.
// The resolved node's own quote target stays unresolved.
func (r *QuoteChainResolver) ResolveOneHop(ctx context.Context, quotedPostID int64, visited *VisitedSet) *QuoteNode {
	if visited == nil {
		visited = NewVisitedSet()
	}
	if visited.Has(quotedPostID) {
		return &QuoteNode{State: QuoteCircular}
	}
	visited.Add(quotedPostID)

	post, err := r.posts.GetPostByID(ctx, quotedPostID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.WithError(err).WithField("post_id", quotedPostID).Warn("quote lookup failed")
		}
		return &QuoteNode{State: QuoteUnavailable}
	}

	author := FallbackIdentity(post.UserID)
	identities, err := r.identities.Resolve(ctx, []string{post.UserID})
	if err != nil {
		r.log.WithError(err).Warn("quote author lookup failed")
	} else if id, ok := identities[post.UserID]; ok {
		author = id
	}

	// Guard the next hop too: a quoted post pointing back into its own
	// ancestry must not be offered for further expansion.
	next := post.QuotedPostID
	if next != nil && visited.Has(*next) {
		return &QuoteNode{State: QuoteResolved, Post: post, Author: author, QuotedPostID: nil}
	}

	return &QuoteNode{State: QuoteResolved, Post: post, Author: author, QuotedPostID: next}
}

// ResolveMany fetches a set of posts in exactly one bulk query, regardless of
// the set size. Missing ids are simply absent from the result.
func (r *QuoteChainResolver) ResolveMany(ctx context.Context, ids []int64) (map[int64]dbmysql.Post, error) {
	unique := dedupePostIDs(ids)
	if len(unique) == 0 {
		return map[int64]dbmysql.Post{}, nil
	}

	posts, err := r.posts.GetPostsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]dbmysql.Post, len(posts))
	for _, p := range posts {
		out[p.PostID] = p
	}
	return out, nil
}

func dedupePostIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
