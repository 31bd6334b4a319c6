package di

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"microblog/internal/cache"
	"microblog/internal/config"
	"microblog/internal/dbmongo"
	"microblog/internal/feed"
	"microblog/internal/media"
	"microblog/internal/user"
)

// Application holds the wired service graph for the feed service binary.
type Application struct {
	Config       *config.Config
	Log          *logrus.Logger
	DB           *gorm.DB
	Mongo        *dbmongo.MongoClient
	Cache        *cache.ProfileCache
	FeedHandlers *feed.FeedHandlers
	UserHandler  *user.Handler
}

func ProvideMediaStore(mongoClient *dbmongo.MongoClient, cfg *config.Config) *media.Store {
	return media.NewStore(mongoClient, cfg.Server.MediaBaseURL)
}

func ProvideProfileCache(cfg *config.Config) (*cache.ProfileCache, error) {
	return cache.NewProfileCache(cfg.Redis)
}

// ProvideIdentityCache maps a disabled cache to a nil interface so the
// resolver's nil check works.
func ProvideIdentityCache(pc *cache.ProfileCache) feed.IdentityCache {
	if pc == nil {
		return nil
	}
	return pc
}

func ProvideCacheInvalidator(pc *cache.ProfileCache) user.CacheInvalidator {
	if pc == nil {
		return nil
	}
	return pc
}
