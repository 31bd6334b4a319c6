package feed

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"microblog/internal/dbmysql"
)

// Identity is the display metadata a feed item needs about an author.
// AvatarInitial is populated only when no avatar URL exists.
type Identity struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	AvatarInitial string `json:"avatar_initial,omitempty"`
}

// FallbackIdentity stands in for a missing or unresolvable profile. A missing
// entry is never an error.
func FallbackIdentity(userID string) Identity {
	id := Identity{UserID: userID, DisplayName: "Anonymous"}
	id.AvatarInitial = id.Initial()
	return id
}

// Initial is the single-letter avatar fallback used when no avatar exists.
func (id Identity) Initial() string {
	name := id.DisplayName
	if name == "" {
		name = "U"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

// IdentityCache is a read-through cache over profile display metadata. A nil
// cache is valid and disables caching.
type IdentityCache interface {
	GetMany(ctx context.Context, ids []string) (map[string]Identity, error)
	SetMany(ctx context.Context, identities map[string]Identity) error
	Invalidate(ctx context.Context, userID string) error
}

// IdentityResolver maps a set of author ids to display metadata with a single
// bulk fetch per call.
type IdentityResolver struct {
	profiles Profiles
	cache    IdentityCache
	log      *logrus.Logger
}

func NewIdentityResolver(profiles Profiles, cache IdentityCache, log *logrus.Logger) *IdentityResolver {
	return &IdentityResolver{profiles: profiles, cache: cache, log: log}
}

// Resolve returns display metadata for each known id in ids. Unknown ids are
// absent from the result; callers substitute FallbackIdentity. An empty input
// issues no query at all.
func (r *IdentityResolver) Resolve(ctx context.Context, ids []string) (map[string]Identity, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return map[string]Identity{}, nil
	}

	result := make(map[string]Identity, len(unique))

	if r.cache != nil {
		hits, err := r.cache.GetMany(ctx, unique)
		if err != nil {
			// A broken cache degrades to a plain bulk fetch.
			r.log.WithError(err).Warn("identity cache read failed")
		} else {
			for id, identity := range hits {
				result[id] = identity
			}
		}
	}

	missing := make([]string, 0, len(unique))
	for _, id := range unique {
		if _, ok := result[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	profiles, err := r.profiles.GetProfilesByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	fetched := make(map[string]Identity, len(profiles))
	for _, p := range profiles {
		identity := identityFromProfile(p)
		result[p.UserID] = identity
		fetched[p.UserID] = identity
	}

	if r.cache != nil && len(fetched) > 0 {
		if err := r.cache.SetMany(ctx, fetched); err != nil {
			r.log.WithError(err).Warn("identity cache write failed")
		}
	}

	return result, nil
}

func identityFromProfile(p dbmysql.Profile) Identity {
	identity := Identity{UserID: p.UserID, DisplayName: "Anonymous"}
	if p.DisplayName != nil && *p.DisplayName != "" {
		identity.DisplayName = *p.DisplayName
	}
	if p.AvatarURL != nil {
		identity.AvatarURL = *p.AvatarURL
	}
	if identity.AvatarURL == "" {
		identity.AvatarInitial = identity.Initial()
	}
	return identity
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
