package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"microblog/internal/common"
	"microblog/internal/dbmysql"
	"microblog/internal/di"
)

func main() {
	log.Println("Starting Feed Service...")

	app, err := di.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize feed service: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Mongo.Close(ctx)
		if app.Cache != nil {
			app.Cache.Close()
		}
	}()

	common.InitAuth(app.Config.Auth.JWTSecret, app.Config.Auth.TokenTTLHrs)

	if err := dbmysql.Migrate(app.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	app.Log.Info("database migration completed")

	r := mux.NewRouter()
	r.Use(common.RequestLogger(app.Log))
	r.Use(common.WithTimeout(time.Duration(app.Config.Server.RequestTimeout) * time.Second))
	app.UserHandler.Register(r)
	app.FeedHandlers.Register(r)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         ":" + app.Config.Server.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		app.Log.WithField("port", app.Config.Server.Port).Info("feed service running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("shutting down feed service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		app.Log.WithError(err).Error("forced shutdown")
	}
	app.Log.Info("feed service stopped")
}
