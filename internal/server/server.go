package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tastebud/apiserver/config"
	"github.com/tastebud/apiserver/internal/db"
	"github.com/tastebud/apiserver/internal/handlers"
	"github.com/tastebud/apiserver/internal/mailer"
	"github.com/tastebud/apiserver/internal/mq"
	"github.com/tastebud/apiserver/internal/services"
	"github.com/tastebud/apiserver/internal/storage"
	"github.com/tastebud/apiserver/internal/store"
)

// Server wraps the HTTP server and its owned resources. Everything is
// constructed here and passed down explicitly; there is no package-level
// state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mqBackend  mq.Backend
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	recipeRepo := store.NewRecipeRepository(dbConn)
	commentRepo := store.NewCommentRepository(dbConn)
	bookmarkRepo := store.NewBookmarkRepository(dbConn)

	userService := services.NewUserService(userRepo)
	recipeService := services.NewRecipeService(recipeRepo)
	commentService := services.NewCommentService(commentRepo, recipeRepo)
	bookmarkService := services.NewBookmarkService(bookmarkRepo, recipeRepo)

	var objectStorage storage.ObjectStorage
	if cfg.Storage.Backend != "" {
		objectStorage, err = storage.New(ctx, cfg.Storage)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	var (
		resetMailer mailer.Mailer
		mqBackend   mq.Backend
	)
	switch cfg.Mail.Backend {
	case "smtp":
		resetMailer, err = mailer.NewSMTPMailer(cfg.Mail)
	case "queue":
		mqBackend, err = mq.New(ctx, cfg.MQ)
		if err == nil {
			resetMailer = mailer.NewQueueMailer(mqBackend)
		}
	case "":
		// No delivery channel; forgot-password returns the link directly.
	default:
		err = fmt.Errorf("unknown mail backend %q", cfg.Mail.Backend)
	}
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	authCfg := handlers.AuthConfig{
		UserService: userService,
		Mailer:      resetMailer,
		Storage:     objectStorage,
		JWTSecret:   jwtSecret,
		TokenTTL:    time.Duration(cfg.JWT.TTLHours) * time.Hour,
		PublicURL:   cfg.PublicURL,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)

	var authHandler *handlers.AuthHandler
	router.Route("/auth", func(r chi.Router) {
		authHandler = handlers.AuthRouter(r, authCfg)
	})

	recipeHandler := handlers.NewRecipeHandler(recipeService, commentService, bookmarkService, objectStorage)
	router.Route("/recipes", func(r chi.Router) {
		recipeHandler.RecipeRouter(r, authHandler.RequireAuth)
	})
	router.With(authHandler.RequireAuth).Delete("/comments/{commentID}", recipeHandler.DeleteComment)
	router.With(authHandler.RequireAuth).Get("/me/bookmarks", recipeHandler.ListMyBookmarks)
	router.Get("/images/*", handlers.ServeImage(objectStorage))
	router.Get("/healthz", handlers.Healthz)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mqBackend:  mqBackend,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.mqBackend != nil {
		_ = s.mqBackend.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
