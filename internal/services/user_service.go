package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/viewtube/viewtube-backend/internal/models"
	"github.com/viewtube/viewtube-backend/internal/repository"
	"github.com/viewtube/viewtube-backend/pkg/apierror"
	"github.com/viewtube/viewtube-backend/pkg/utils"
)

const (
	avatarFolder = "viewtube/avatars"
	coverFolder  = "viewtube/covers"
)

// TokenPair is the access/refresh pair handed to the transport layer so it
// can set both cookies.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService orchestrates the session lifecycle and profile operations.
// The authenticated principal is always passed in explicitly; the service
// never reads ambient request state.
type UserService struct {
	repo   repository.Users
	tokens *TokenService
	media  Uploader
}

func NewUserService(repo repository.Users, tokens *TokenService, media Uploader) *UserService {
	return &UserService{repo: repo, tokens: tokens, media: media}
}

// RegisterInput carries the registration form fields and files.
type RegisterInput struct {
	Fullname   string
	Email      string
	Username   string
	Password   string
	Avatar     *multipart.FileHeader
	CoverImage *multipart.FileHeader // optional
}

// Register validates the input (fail fast, before any I/O), uploads the
// avatar and optional cover image, and creates the user with a hashed
// password. The returned user carries no password or refresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	if fullname == "" || email == "" || username == "" || in.Password == "" {
		return nil, apierror.BadRequest("All fields are required")
	}
	if err := utils.ValidateFullname(fullname); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if err := utils.ValidateUsername(username); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if in.Avatar == nil {
		return nil, apierror.BadRequest("Avatar file is required")
	}

	username = utils.NormalizeUsername(username)

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierror.Conflict("User with email or username already exists")
	}

	avatarURL, err := s.media.UploadFromHeader(ctx, in.Avatar, avatarFolder)
	if err != nil || avatarURL == "" {
		return nil, apierror.BadRequest("Avatar upload failed")
	}

	coverURL := ""
	if in.CoverImage != nil {
		// Cover image is optional; a failed cover upload just leaves it empty.
		coverURL, _ = s.media.UploadFromHeader(ctx, in.CoverImage, coverFolder)
	}

	// Hashing is an explicit step here, never a persistence-side hook.
	digest, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, &models.User{
		Username:   username,
		Email:      email,
		Fullname:   fullname,
		Password:   digest,
		Avatar:     avatarURL,
		CoverImage: coverURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("User with email or username already exists")
		}
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.Internal("Something went wrong while registering the user")
	}

	sanitized := created.Sanitized()
	return &sanitized, nil
}

// Login verifies credentials, issues an access/refresh pair and persists
// the refresh token, overwriting any previous one (single active session).
func (s *UserService) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, TokenPair, error) {
	identifier := strings.TrimSpace(usernameOrEmail)
	if identifier == "" {
		return nil, TokenPair{}, apierror.BadRequest("Username or email is required")
	}

	user, err := s.repo.FindByUsernameOrEmail(ctx, utils.NormalizeUsername(identifier), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, apierror.NotFound("User does not exist")
		}
		return nil, TokenPair{}, err
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, TokenPair{}, apierror.Unauthorized("Invalid user credentials")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, TokenPair{}, err
	}

	sanitized := user.Sanitized()
	return &sanitized, pair, nil
}

// Logout clears the stored refresh token. Logging out an already
// logged-out user succeeds silently.
func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.ClearRefreshToken(ctx, userID)
}

// RefreshAccessToken rotates the refresh token: the presented token must
// verify against the refresh secret AND still be the stored one. The swap
// is a single conditional update, so a rotated-out token loses the race.
func (s *UserService) RefreshAccessToken(ctx context.Context, incoming string) (TokenPair, error) {
	if incoming == "" {
		return TokenPair{}, apierror.Unauthorized("Unauthorized request")
	}

	claims, err := s.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return TokenPair{}, apierror.Unauthorized(err.Error())
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return TokenPair{}, apierror.Unauthorized("Invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return TokenPair{}, apierror.Unauthorized("Invalid refresh token")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, err
	}

	rotated, err := s.repo.RotateRefreshToken(ctx, user.ID, incoming, pair.RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if !rotated {
		return TokenPair{}, apierror.Unauthorized("Refresh token is expired or used")
	}

	return pair, nil
}

// ChangePassword verifies the old password and the confirmation before
// anything is persisted, then stores the new digest.
func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return s.mapUserErr(err)
	}

	ok, err := utils.VerifyPassword(oldPassword, user.Password)
	if err != nil || !ok {
		return apierror.Unauthorized("Invalid old password")
	}

	if newPassword != confirmPassword {
		return apierror.BadRequest("New password and confirm password do not match")
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return apierror.BadRequest(err.Error())
	}

	digest, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, digest)
}

// UpdateAccountDetails updates username, fullname and email; all three are
// required.
func (s *UserService) UpdateAccountDetails(ctx context.Context, userID primitive.ObjectID, username, fullname, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	fullname = strings.TrimSpace(fullname)
	email = strings.TrimSpace(email)

	if username == "" || fullname == "" || email == "" {
		return nil, apierror.BadRequest("All fields are required")
	}
	if err := utils.ValidateUsername(username); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if err := utils.ValidateFullname(fullname); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, apierror.BadRequest(err.Error())
	}

	user, err := s.repo.UpdateAccountDetails(ctx, userID, utils.NormalizeUsername(username), fullname, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("User with email or username already exists")
		}
		return nil, s.mapUserErr(err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// UpdateAvatar uploads a new avatar and stores its URL. The old media is
// not reclaimed.
func (s *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, file *multipart.FileHeader) (*models.User, error) {
	return s.updateImage(ctx, userID, file, avatarFolder, s.repo.UpdateAvatar, "Avatar")
}

// UpdateCoverImage uploads a new cover image and stores its URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, file *multipart.FileHeader) (*models.User, error) {
	return s.updateImage(ctx, userID, file, coverFolder, s.repo.UpdateCoverImage, "Cover image")
}

func (s *UserService) updateImage(
	ctx context.Context,
	userID primitive.ObjectID,
	file *multipart.FileHeader,
	folder string,
	persist func(context.Context, primitive.ObjectID, string) (*models.User, error),
	label string,
) (*models.User, error) {
	if file == nil {
		return nil, apierror.BadRequest(label + " file is required")
	}

	url, err := s.media.UploadFromHeader(ctx, file, folder)
	if err != nil || url == "" {
		return nil, apierror.BadRequest("Error while uploading " + strings.ToLower(label))
	}

	user, err := persist(ctx, userID, url)
	if err != nil {
		return nil, s.mapUserErr(err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// GetChannelProfile runs the channel aggregation: subscriber counts and
// whether the viewer subscribes to the channel. Viewer may be the zero
// ObjectID for anonymous requests.
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*models.ChannelProfile, error) {
	username = utils.NormalizeUsername(username)
	if username == "" {
		return nil, apierror.BadRequest("Username is missing")
	}

	profile, err := s.repo.ChannelProfile(ctx, username, viewer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("Channel does not exist")
		}
		return nil, err
	}
	return profile, nil
}

// AddToWatchHistory records a video view at the front of the user's
// history.
func (s *UserService) AddToWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error {
	if err := s.repo.AddToWatchHistory(ctx, userID, videoID); err != nil {
		return s.mapUserErr(err)
	}
	return nil
}

// GetWatchHistory returns the resolved, owner-enriched watch-history list.
func (s *UserService) GetWatchHistory(ctx context.Context, userID primitive.ObjectID) ([]models.WatchVideo, error) {
	history, err := s.repo.WatchHistory(ctx, userID)
	if err != nil {
		return nil, s.mapUserErr(err)
	}
	return history, nil
}

func (s *UserService) issuePair(user *models.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) mapUserErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.NotFound("User does not exist")
	}
	return err
}
