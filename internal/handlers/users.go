package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Users         UserStore
	Videos        VideoStore
	Sessions      SessionManager
	Media         MediaUploader
	Reclaimer     AssetReclaimer
	SecureCookies bool
	PasswordCost  int
	NowFunc       func() time.Time
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

func (req *loginRequest) normalize() {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type accountDetailsRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
}

func (req *accountDetailsRequest) normalize() {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h UserHandler) ready() error {
	if h.Users == nil || h.Sessions == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

func (h UserHandler) hash(password string) (string, error) {
	cost := h.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", apperrors.Internal(err, "Something went wrong")
	}
	return string(hashed), nil
}

// Register handles POST /users/register. The avatar is mandatory, the cover
// image optional; nothing is persisted unless every upload succeeded.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := parseMultipart(r); err != nil {
		response.Error(ctx, w, err)
		return
	}

	req := registerRequest{
		FullName: formValue(r, "fullName"),
		Email:    strings.ToLower(formValue(r, "email")),
		Username: strings.ToLower(formValue(r, "username")),
		Password: formValue(r, "password"),
	}
	if err := validateRequest(req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	exists, err := h.Users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, "")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if exists {
		response.Error(ctx, w, apperrors.Conflict("User with email or username already exists"))
		return
	}

	avatarFile := formFile(r, "avatar")
	if avatarFile == nil {
		response.Error(ctx, w, apperrors.Validation("Avatar file is required"))
		return
	}
	if h.Media == nil {
		response.Error(ctx, w, apperrors.Upstream(errUnavailable, "Media storage unavailable"))
		return
	}
	avatar, err := h.Media.Upload(ctx, avatarFile)
	if err != nil {
		response.Error(ctx, w, uploadFailure(err, "avatar"))
		return
	}

	var cover models.Asset
	if coverFile := formFile(r, "coverImage"); coverFile != nil {
		cover, err = h.Media.Upload(ctx, coverFile)
		if err != nil {
			reclaim(ctx, h.Reclaimer, avatar)
			response.Error(ctx, w, uploadFailure(err, "coverImage"))
			return
		}
	}

	hashed, err := h.hash(req.Password)
	if err != nil {
		reclaim(ctx, h.Reclaimer, avatar, cover)
		response.Error(ctx, w, err)
		return
	}

	now := nowFrom(h.NowFunc)
	user := models.User{
		ID:         models.NewID(),
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   hashed,
		Avatar:     avatar,
		CoverImage: cover,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		reclaim(ctx, h.Reclaimer, avatar, cover)
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("User with email or username already exists"))
			return
		}
		response.Error(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	response.Created(ctx, w, user, "User registered successfully")
}

// Login handles POST /users/login with either a username or an email.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	if req.Username == "" && req.Email == "" {
		response.Error(ctx, w, apperrors.Validation("Username or email is required"))
		return
	}

	var (
		user models.User
		err  error
	)
	if req.Username != "" {
		user, err = h.Users.FindByUsername(ctx, req.Username)
	} else {
		user, err = h.Users.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		response.Error(ctx, w, notFound(err, "User does not exist"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logging.FromContext(ctx).Warn("login password mismatch", "user_id", user.ID)
		response.Error(ctx, w, apperrors.Unauthorized("Invalid user credentials"))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		response.Error(ctx, w, apperrors.Internal(err, "Something went wrong"))
		return
	}

	auth.SetSessionCookies(w, tokens, h.SecureCookies)
	response.OK(ctx, w, loginResponse{User: user, AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, "User logged in successfully")
}

// Logout handles POST /users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		response.Error(ctx, w, err)
		return
	}
	auth.ClearSessionCookies(w, h.SecureCookies)
	response.OK(ctx, w, struct{}{}, "User logged out")
}

// RefreshToken handles POST /users/refreshToken, rotating the token pair.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	token := ""
	if cookie, err := r.Cookie(auth.RefreshCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" && r.Body != nil {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			if tooLarge := bodyTooLarge(err); tooLarge != nil {
				response.Error(ctx, w, tooLarge)
				return
			}
			response.Error(ctx, w, apperrors.Validation("Invalid request body").WithCause(err))
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		response.Error(ctx, w, apperrors.Unauthorized("Unauthorized request"))
		return
	}

	tokens, userID, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
			response.Error(ctx, w, apperrors.Unauthorized("Refresh token is expired or used"))
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, repositories.ErrNotFound):
			response.Error(ctx, w, apperrors.Unauthorized("Invalid refresh token"))
		default:
			response.Error(ctx, w, apperrors.Internal(err, "Something went wrong"))
		}
		return
	}

	logging.FromContext(ctx).Info("session refreshed", "user_id", userID)
	auth.SetSessionCookies(w, tokens, h.SecureCookies)
	response.OK(ctx, w, tokensResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, "Access token refreshed")
}

// ChangePassword handles POST /users/changePassword.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		response.Error(ctx, w, apperrors.Validation("Invalid old password"))
		return
	}

	hashed, err := h.hash(req.NewPassword)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	user.Password = hashed
	user.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Users.Update(ctx, user); err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, struct{}{}, "Password changed successfully")
}

// CurrentUser handles GET /users/getCurrentUser.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(r.Context(), w, err)
		return
	}
	response.OK(r.Context(), w, user, "User fetched successfully")
}

// UpdateAccountDetails handles PATCH /users/updateAccountDetails.
func (h UserHandler) UpdateAccountDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req accountDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if req.FullName == user.FullName && req.Email == user.Email && req.Username == user.Username {
		response.Error(ctx, w, apperrors.Validation("New details must differ from the current ones"))
		return
	}

	taken, err := h.Users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, user.ID)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if taken {
		response.Error(ctx, w, apperrors.Conflict("Username or email is already in use"))
		return
	}

	user.FullName = req.FullName
	user.Email = req.Email
	user.Username = req.Username
	user.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("Username or email is already in use"))
			return
		}
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /users/updateUserAvatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", func(u *models.User) *models.Asset { return &u.Avatar }, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /users/updateUserCoverImage.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", func(u *models.User) *models.Asset { return &u.CoverImage }, "Cover image updated successfully")
}

// RemoveAvatar handles POST /users/removeavatar.
func (h UserHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	h.removeImage(w, r, func(u *models.User) *models.Asset { return &u.Avatar }, "avatar", "Avatar removed successfully")
}

// RemoveCoverImage handles POST /users/removecoverimage.
func (h UserHandler) RemoveCoverImage(w http.ResponseWriter, r *http.Request) {
	h.removeImage(w, r, func(u *models.User) *models.Asset { return &u.CoverImage }, "cover image", "Cover image removed successfully")
}

// replaceImage uploads the new file, updates the user and only then queues
// the previous asset for deletion.
func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, slot func(*models.User) *models.Asset, message string) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := parseMultipart(r); err != nil {
		response.Error(ctx, w, err)
		return
	}

	file := formFile(r, field)
	if file == nil {
		response.Error(ctx, w, apperrors.Validation("%s file is missing", field))
		return
	}
	if h.Media == nil {
		response.Error(ctx, w, apperrors.Upstream(errUnavailable, "Media storage unavailable"))
		return
	}
	asset, err := h.Media.Upload(ctx, file)
	if err != nil {
		response.Error(ctx, w, uploadFailure(err, field))
		return
	}

	previous := *slot(&user)
	*slot(&user) = asset
	user.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Users.Update(ctx, user); err != nil {
		reclaim(ctx, h.Reclaimer, asset)
		response.Error(ctx, w, err)
		return
	}

	reclaim(ctx, h.Reclaimer, previous)
	response.OK(ctx, w, user, message)
}

func (h UserHandler) removeImage(w http.ResponseWriter, r *http.Request, slot func(*models.User) *models.Asset, label, message string) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	previous := *slot(&user)
	if previous.IsZero() {
		response.Error(ctx, w, apperrors.NotFound("No %s to remove", label))
		return
	}

	*slot(&user) = models.Asset{}
	user.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Users.Update(ctx, user); err != nil {
		response.Error(ctx, w, err)
		return
	}

	reclaim(ctx, h.Reclaimer, previous)
	response.OK(ctx, w, user, message)
}

// ChannelProfile handles GET /users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	username, err := pathID(r, "username")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, strings.ToLower(username), viewer.ID)
	if err != nil {
		response.Error(ctx, w, notFound(err, "Channel does not exist"))
		return
	}
	response.OK(ctx, w, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /users/watchHistory.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}

	history, err := h.Users.WatchHistory(ctx, user.ID)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	videos := make([]models.Video, 0, len(history))
	for _, video := range history {
		if visibleTo(video, user.ID) {
			videos = append(videos, video)
		}
	}
	response.OK(ctx, w, videos, "Watch history fetched successfully")
}

type watchResponse struct {
	VideoID string `json:"videoId"`
	Added   bool   `json:"added"`
}

// AddToWatchHistory handles POST /users/watchHistory/c/{videoId}. The
// history keeps one entry per video; every call counts a view.
func (h UserHandler) AddToWatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	if h.Videos == nil {
		response.Error(ctx, w, apperrors.Internal(errUnavailable, "Something went wrong"))
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}
	if !visibleTo(video, user.ID) {
		response.Error(ctx, w, apperrors.NotFound("Video not found"))
		return
	}

	added, err := h.Users.AddToWatchHistory(ctx, user.ID, videoID, nowFrom(h.NowFunc))
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}
	response.OK(ctx, w, watchResponse{VideoID: videoID, Added: added}, "Video added to watch history")
}
