package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fanfare/docs" //this is required to generate swagger docs
	"fanfare/internal/auth"
	"fanfare/internal/domain/curation"
	"fanfare/internal/mailer"
	"fanfare/internal/notifications"
	"fanfare/internal/ratelimiter"
	"fanfare/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	curation      curation.Store
	dispatcher    *notifications.Dispatcher
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	auth        authConfig
	mail        mailConfig
	curation    curationConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	aud    string
	iss    string
}

// basicConfig guards the admin surface. pass holds a bcrypt hash, never the
// plaintext.
type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host            string
	port            int
	username        string
	password        string
	fromEmail       string
	moderationEmail string
}

type curationConfig struct {
	interval time.Duration
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(app.RateLimiterMiddleware)

	// Request-scoped timeout; long scans are additionally bounded by the
	// store's own query timeouts.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/reviews", func(r chi.Router) {
			// reads take an optional identity for the is_liked /
			// is_bookmarked enrichment
			r.With(app.OptionalAuthTokenMiddleware).Get("/", app.getReviewsHandler)

			r.With(app.AuthTokenMiddleware).Post("/", app.createReviewHandler)

			r.Route("/{reviewID}", func(r chi.Router) {
				r.With(app.OptionalAuthTokenMiddleware).Get("/", app.getReviewHandler)
				r.With(app.OptionalAuthTokenMiddleware).Get("/comments", app.getReviewCommentsHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Patch("/", app.updateReviewHandler)
					r.Delete("/", app.deleteReviewHandler)
					r.Post("/photos", app.uploadReviewPhotoHandler)
					r.Post("/like", app.toggleLikeHandler)
					r.Post("/bookmark", app.toggleBookmarkHandler)
					r.Post("/helpful", app.toggleHelpfulHandler)
					r.Post("/report", app.reportReviewHandler)
					r.Post("/comments", app.createCommentHandler)
				})
			})
		})

		r.Route("/comments/{commentID}", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Patch("/", app.updateCommentHandler)
			r.Delete("/", app.deleteCommentHandler)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.getNotificationsHandler)
			r.Get("/unread-count", app.getUnreadCountHandler)
			r.Put("/read-all", app.markAllNotificationsReadHandler)
			r.Put("/{notificationID}/read", app.markNotificationReadHandler)
			r.Delete("/{notificationID}", app.deleteNotificationHandler)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", app.getEventsHandler)
			r.Get("/{eventID}", app.getEventHandler)
			r.With(app.BasicAuthMiddleware()).Delete("/{eventID}", app.deleteEventHandler)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{userID}", app.getUserHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/push-tokens", app.registerPushTokenHandler)
				r.Put("/{userID}/follow", app.followUserHandler)
				r.Put("/{userID}/unfollow", app.unfollowUserHandler)
			})
		})

		r.With(app.BasicAuthMiddleware()).Post("/admin/curation/run", app.runCurationHandler)
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
