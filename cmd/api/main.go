package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"photojournal/internal/config"
	"photojournal/internal/database"
	"photojournal/internal/imagestore"
	"photojournal/internal/middleware"
	"photojournal/internal/modules/auth"
	"photojournal/internal/modules/feed"
	"photojournal/internal/modules/journal"
	jwtsvc "photojournal/internal/pkg/jwt"
	"photojournal/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if dir := filepath.Dir(cfg.DatabaseURL); dir != "." && !isPostgres(cfg.DatabaseURL) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal(err)
		}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	if err := userRepo.Migrate(); err != nil {
		log.Fatal(err)
	}
	if err := entryRepo.Migrate(); err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := feed.NewHub(cfg.Visibility)
	defer hub.Close()

	images := imagestore.New(cfg.UploadDir, cfg.MaxUploadBytes())

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService, auth.SessionCookie{
		Name:   cfg.CookieName,
		MaxAge: int(cfg.JWTTTL.Seconds()),
		Secure: cfg.CookieSecure,
	}, cfg.StaticDir)

	journalService := journal.NewService(entryRepo, images, cfg.Visibility, hub)
	journalHandler := journal.NewHandler(journalService)

	feedHandler := feed.NewHandler(hub, j, cfg.CookieName)

	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.ErrorLogger())
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	root := r.Group("/")
	{
		// public
		authHandler.RegisterRoutes(root)

		// protected
		protected := root.Group("/")
		protected.Use(middleware.JWTAuth(j, cfg.CookieName))
		{
			journalHandler.RegisterRoutes(protected)
		}
	}

	// Websocket does its own token check (browsers cannot send headers).
	r.GET("/ws", feedHandler.HandleWebSocket)

	// Stored images and the PWA shell.
	r.Static("/uploads", images.BaseDir())
	r.StaticFile("/offline", filepath.Join(cfg.StaticDir, "offline.html"))
	r.StaticFile("/service-worker.js", filepath.Join(cfg.StaticDir, "js", "service-worker.js"))
	r.StaticFile("/manifest.json", filepath.Join(cfg.StaticDir, "manifest.json"))

	log.Printf("listening on %s (visibility=%s)", cfg.HTTPAddr, cfg.Visibility)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
