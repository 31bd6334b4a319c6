package main

import (
	"context"
	"log"
	"net/http"

	"microblog/internal/common"
	"microblog/internal/config"
	"microblog/internal/dbmongo"
	"microblog/internal/media"
)

func main() {
	cfg := config.LoadConfig()
	logger := common.NewLogger(cfg)

	mongoClient, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Close(context.Background())

	mediaServer := media.NewHTTPServer(mongoClient, logger)

	logger.WithField("port", cfg.Server.MediaServerPort).Info("media server starting")
	if err := http.ListenAndServe(":"+cfg.Server.MediaServerPort, mediaServer); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
