package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/viewtube/viewtube-backend/internal/services"
)

var userService *services.UserService

// InitUserService wires the session controller used by every handler.
func InitUserService(s *services.UserService) {
	userService = s
}

// LoginRequest accepts either identifier field.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			MaxAge:   -1,
		})
	}
}

// Register handles user registration with multipart/form-data (avatar
// required, cover image optional).
func Register(w http.ResponseWriter, r *http.Request) {
	// 20MB covers avatar + cover image + form fields
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		respond(w, http.StatusBadRequest, nil, "Invalid multipart form")
		return
	}

	user, err := userService.Register(r.Context(), services.RegisterInput{
		Fullname:   r.FormValue("fullname"),
		Email:      r.FormValue("email"),
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		Avatar:     formFile(r, "avatar"),
		CoverImage: formFile(r, "coverImage"),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, user, "User registered successfully")
}

// Login verifies credentials and sets the auth cookies. The token pair is
// also returned in the body for non-browser clients.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, pair, err := userService.Login(r.Context(), identifier, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	setAuthCookies(w, pair)
	respond(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout clears the stored refresh token and the cookies.
func Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := userService.Logout(r.Context(), user.ID); err != nil {
		respondError(w, err)
		return
	}

	clearAuthCookies(w)
	respond(w, http.StatusOK, nil, "User logged out successfully")
}

// RefreshAccessToken rotates the refresh token. The incoming token comes
// from the refreshToken cookie or the request body.
func RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	incoming := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			incoming = req.RefreshToken
		}
	}

	pair, err := userService.RefreshAccessToken(r.Context(), incoming)
	if err != nil {
		respondError(w, err)
		return
	}

	setAuthCookies(w, pair)
	respond(w, http.StatusOK, map[string]interface{}{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

// ChangePassword updates the current user's password.
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, nil, "Invalid request body")
		return
	}

	if err := userService.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, nil, "Password changed successfully")
}
