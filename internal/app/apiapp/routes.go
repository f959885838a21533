package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/config"
	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	chatsvc "github.com/ivankudzin/heartsync/internal/services/chat"
	feedsvc "github.com/ivankudzin/heartsync/internal/services/feed"
	matchessvc "github.com/ivankudzin/heartsync/internal/services/matches"
	mediasvc "github.com/ivankudzin/heartsync/internal/services/media"
	"github.com/ivankudzin/heartsync/internal/services/notify"
	profilesvc "github.com/ivankudzin/heartsync/internal/services/profiles"
	swipesvc "github.com/ivankudzin/heartsync/internal/services/swipes"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
	"github.com/ivankudzin/heartsync/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	ChatService    *chatsvc.Service
	FeedService    *feedsvc.Service
	MatchesService *matchessvc.Service
	MediaService   *mediasvc.Service
	ProfileService *profilesvc.Service
	SwipeService   *swipesvc.Service
	Hub            *notify.Hub
	HealthChecks   map[string]handlers.HealthCheck
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, deps.Logger)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService, deps.Logger)
	feedHandler := handlers.NewFeedHandler(deps.FeedService, deps.Logger)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService, deps.Logger)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchesService, deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.ChatService, deps.Logger)
	wsHandler := handlers.NewWSHandler(deps.Hub, deps.ChatService, deps.Logger)

	requestTimeout := deps.Config.HTTP.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = config.Default().HTTP.RequestTimeout
	}

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(deps.AuthService, deps.Logger))

				r.Post("/auth/logout", authHandler.Logout)
				r.Post("/auth/logout_all", authHandler.LogoutAll)

				r.Get("/profile/me", profileHandler.Me)
				r.Patch("/profile/me", profileHandler.Update)
				r.Post("/profile/photo", mediaHandler.PhotoUpload)

				r.Get("/discovery", feedHandler.Handle)
				r.Post("/swipe", swipeHandler.Handle)

				r.Get("/matches", matchesHandler.Handle)
				r.Get("/matches/{id}/messages", chatHandler.List)
				r.Post("/matches/{id}/messages", chatHandler.Send)
			})
		})

		r.With(WSAuthMiddleware(deps.AuthService, deps.Logger)).Get("/ws", wsHandler.Handle)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusMethodNotAllowed, httperrors.APIError{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})
}
