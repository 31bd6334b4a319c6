//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"microblog/internal/common"
	"microblog/internal/config"
	"microblog/internal/dbmongo"
	"microblog/internal/dbmysql"
	"microblog/internal/feed"
	"microblog/internal/media"
	"microblog/internal/user"
)

// This is just a declaration — wire generates the real body in wire_gen.go.
func InitializeApplication() (*Application, error) {
	wire.Build(
		config.LoadConfig,
		common.NewLogger,
		dbmysql.NewMySQL,
		dbmongo.NewMongoConnection,
		ProvideMediaStore,
		ProvideProfileCache,
		ProvideIdentityCache,
		ProvideCacheInvalidator,

		feed.NewFeedRepository,
		wire.Bind(new(feed.Posts), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Likes), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Profiles), new(*feed.FeedRepository)),
		wire.Bind(new(feed.MediaStore), new(*media.Store)),
		feed.NewIdentityResolver,
		feed.NewQuoteChainResolver,
		feed.NewEngagementCounter,
		feed.NewEngagementReconciler,
		feed.NewFeedAssembler,
		feed.NewFeedService,
		wire.Bind(new(feed.FeedUsecase), new(*feed.FeedService)),
		feed.NewFeedHandlers,

		user.NewProfileRepository,
		user.NewFollowRepository,
		wire.Bind(new(user.MediaStore), new(*media.Store)),
		user.NewUserService,
		user.NewHandler,

		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
