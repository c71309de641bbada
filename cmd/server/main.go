package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/auth"
	"github.com/fairops/fairadmin/internal/config"
	"github.com/fairops/fairadmin/internal/database"
	"github.com/fairops/fairadmin/internal/handler"
	"github.com/fairops/fairadmin/internal/queue"
	"github.com/fairops/fairadmin/internal/repository"
	"github.com/fairops/fairadmin/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: without it the rate limiter and response cache
	// fail open and the API still works.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db)
	fairs := repository.NewFairRepo(db)
	sectors := repository.NewSectorRepo(db)
	exhibitors := repository.NewExhibitorRepo(db)
	links := repository.NewLinkRepo(db)
	activities := repository.NewActivityRepo(db)

	gate := &auth.Gate{
		Users:    users,
		Profiles: profiles,
		Roles:    roles,
		Tokens:   tokens,
		Creator: &auth.Registrar{
			DB:         db,
			Users:      users,
			Profiles:   profiles,
			Roles:      roles,
			BcryptCost: cfg.BcryptCost,
		},
		Secret:         cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		ProfileRetries: cfg.ProfileRetries,
		RetryDelay:     time.Duration(cfg.ProfileRetryMS) * time.Millisecond,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background approval sweep: revokes refresh tokens of users whose
	// approval was withdrawn since their last request.
	reval := &auth.Revalidator{
		Tokens:   tokens,
		Interval: time.Duration(cfg.RevalidateSec) * time.Second,
	}
	reval.Start(ctx)
	defer reval.Stop()

	// Feed consumer: drains activity.recorded into the activities table.
	// Runs its own reconnect loop for the life of the process.
	go func() {
		if err := queue.StartActivityConsumer(activities); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Deps{
		Auth:       handler.NewAuthHandler(gate),
		Fairs:      handler.NewFairHandler(fairs, sectors),
		Sectors:    handler.NewSectorHandler(sectors, fairs),
		Exhibitors: handler.NewExhibitorHandler(exhibitors, sectors, fairs, links, activities),
		Assign:     handler.NewAssignmentHandler(exhibitors, sectors, fairs, links, activities),
		Capacity:   handler.NewCapacityHandler(fairs, sectors, links),
		Admin:      handler.NewAdminUserHandler(users, profiles, roles, tokens),
		Activities: handler.NewActivityHandler(activities),

		Profiles:  profiles,
		Tokens:    tokens,
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
