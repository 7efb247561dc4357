package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/viewtube/viewtube-backend/internal/middleware"
	"github.com/viewtube/viewtube-backend/internal/models"
)

type UpdateAccountRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		respond(w, http.StatusUnauthorized, nil, "Unauthorized request")
		return nil, false
	}
	return user, true
}

// GetCurrentUser returns the user attached by the auth middleware.
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccountDetails updates username, fullname and email.
func UpdateAccountDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	updated, err := userService.UpdateAccountDetails(r.Context(), user.ID, req.Username, req.Fullname, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, updated, "Account details updated successfully")
}

// UpdateAvatar replaces the current user's avatar.
func UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	updateImage(w, r, "avatar", "Avatar updated successfully")
}

// UpdateCoverImage replaces the current user's cover image.
func UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	updateImage(w, r, "coverImage", "Cover image updated successfully")
}

func updateImage(w http.ResponseWriter, r *http.Request, field, message string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond(w, http.StatusBadRequest, nil, "Invalid multipart form")
		return
	}

	var err error
	var updated *models.User
	if field == "avatar" {
		updated, err = userService.UpdateAvatar(r.Context(), user.ID, formFile(r, field))
	} else {
		updated, err = userService.UpdateCoverImage(r.Context(), user.ID, formFile(r, field))
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, updated, message)
}

// GetChannelProfile returns the channel aggregation for a username. The
// viewer is the authenticated user; isSubscribed is computed against them.
func GetChannelProfile(w http.ResponseWriter, r *http.Request) {
	viewer := primitive.NilObjectID
	if user, ok := middleware.CurrentUser(r); ok {
		viewer = user.ID
	}

	profile, err := userService.GetChannelProfile(r.Context(), chi.URLParam(r, "username"), viewer)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, profile, "Channel profile fetched successfully")
}

// AddToWatchHistory records a viewed video at the front of the current
// user's history.
func AddToWatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	videoID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "videoId"))
	if err != nil {
		respond(w, http.StatusBadRequest, nil, "Invalid video id")
		return
	}

	if err := userService.AddToWatchHistory(r.Context(), user.ID, videoID); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, nil, "Watch history updated")
}

// GetWatchHistory returns the current user's resolved watch history.
func GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	history, err := userService.GetWatchHistory(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, history, "Watch history fetched successfully")
}
