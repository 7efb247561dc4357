package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/viewtube/viewtube-backend/internal/handlers"
	"github.com/viewtube/viewtube-backend/internal/middleware"
	"github.com/viewtube/viewtube-backend/internal/repository"
	"github.com/viewtube/viewtube-backend/internal/services"
)

func SetupRoutes(r *chi.Mux, tokens *services.TokenService, users repository.Users) {
	requireAuth := middleware.RequireAuth(tokens, users)

	r.Route("/api/v1/users", func(r chi.Router) {
		// Public
		r.Post("/register", handlers.Register)
		r.Post("/login", handlers.Login)
		r.Post("/refresh-token", handlers.RefreshAccessToken)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", handlers.Logout)
			r.Post("/change-password", handlers.ChangePassword)
			r.Get("/current-user", handlers.GetCurrentUser)
			r.Patch("/update-account", handlers.UpdateAccountDetails)
			r.Patch("/avatar", handlers.UpdateAvatar)
			r.Patch("/cover-image", handlers.UpdateCoverImage)
			r.Get("/c/{username}", handlers.GetChannelProfile)
			r.Get("/history", handlers.GetWatchHistory)
			r.Post("/history/{videoId}", handlers.AddToWatchHistory)
		})
	})
}
