package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists    PlaylistStore
	Videos       VideoStore
	Users        UserStore
	Media        MediaUploader
	Reclaimer    AssetReclaimer
	PageMaxLimit int
	NowFunc      func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required"`
}

func (req *playlistRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
}

func (h PlaylistHandler) ready() error {
	if h.Playlists == nil || h.Videos == nil || h.Users == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

func (h PlaylistHandler) ownedPlaylist(r *http.Request) (models.Playlist, error) {
	user, err := currentUser(r)
	if err != nil {
		return models.Playlist{}, err
	}
	if err := h.ready(); err != nil {
		return models.Playlist{}, err
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return models.Playlist{}, err
	}
	playlist, err := h.Playlists.FindByID(r.Context(), playlistID)
	if err != nil {
		return models.Playlist{}, notFound(err, "Playlist not found")
	}
	if err := requireOwner(playlist.OwnerID, user, "playlist"); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// nameTaken reports whether another playlist already uses name.
func (h PlaylistHandler) nameTaken(r *http.Request, name, excludeID string) (bool, error) {
	existing, err := h.Playlists.FindByName(r.Context(), name)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return existing.ID != excludeID, nil
}

// Create handles POST /playlist/createplaylist. The thumbnail is optional.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	req := playlistRequest{Name: formValue(r, "name"), Description: formValue(r, "description")}
	if err := validateRequest(req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	taken, err := h.nameTaken(r, req.Name, "")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if taken {
		response.Error(ctx, w, apperrors.Conflict("Playlist with this name already exists"))
		return
	}

	var thumbnail models.Asset
	if file := formFile(r, "thumbnail"); file != nil {
		if h.Media == nil {
			response.Error(ctx, w, apperrors.Upstream(errUnavailable, "Media storage unavailable"))
			return
		}
		thumbnail, err = h.Media.Upload(ctx, file)
		if err != nil {
			response.Error(ctx, w, uploadFailure(err, "thumbnail"))
			return
		}
	}

	now := nowFrom(h.NowFunc)
	profile := user.Profile()
	playlist := models.Playlist{
		ID:          models.NewID(),
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   thumbnail,
		OwnerID:     user.ID,
		Owner:       &profile,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		reclaim(ctx, h.Reclaimer, thumbnail)
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("Playlist with this name already exists"))
			return
		}
		response.Error(ctx, w, err)
		return
	}
	response.Created(ctx, w, playlist, "Playlist created successfully")
}

// ListByUser handles GET /playlist/c/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		response.Error(ctx, w, notFound(err, "User does not exist"))
		return
	}

	page, err := h.Playlists.ListByOwner(ctx, userID, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Playlists fetched successfully")
}

// Get handles GET /playlist/user/c/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	detail, err := h.Playlists.Detail(ctx, playlistID)
	if err != nil {
		response.Error(ctx, w, notFound(err, "Playlist not found"))
		return
	}
	response.OK(ctx, w, detail, "Playlist fetched successfully")
}

// AddVideo handles POST /playlist/{playlistId}/addVideo/c/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}
	if playlist.Contains(videoID) {
		response.Error(ctx, w, apperrors.Conflict("Video already exists in this playlist"))
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID, nowFrom(h.NowFunc)); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("Video already exists in this playlist"))
			return
		}
		response.Error(ctx, w, err)
		return
	}

	updated, err := h.Playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		response.Error(ctx, w, notFound(err, "Playlist not found"))
		return
	}
	response.OK(ctx, w, updated, "Video added to playlist successfully")
}

// RemoveVideo handles POST /playlist/{playlistId}/removeVideo/c/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if !playlist.Contains(videoID) {
		response.Error(ctx, w, apperrors.NotFound("Video does not exist in this playlist"))
		return
	}
	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID, nowFrom(h.NowFunc)); err != nil {
		response.Error(ctx, w, notFound(err, "Video does not exist in this playlist"))
		return
	}

	updated, err := h.Playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		response.Error(ctx, w, notFound(err, "Playlist not found"))
		return
	}
	response.OK(ctx, w, updated, "Video removed from playlist successfully")
}

// Delete handles DELETE /playlist/delete/c/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		response.Error(ctx, w, notFound(err, "Playlist not found"))
		return
	}

	reclaim(ctx, h.Reclaimer, playlist.Thumbnail)
	response.OK(ctx, w, struct{}{}, "Playlist deleted successfully")
}

// Update handles PATCH /playlist/update/c/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	taken, err := h.nameTaken(r, req.Name, playlist.ID)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if taken {
		response.Error(ctx, w, apperrors.Conflict("Playlist with this name already exists"))
		return
	}

	playlist.Name = req.Name
	playlist.Description = req.Description
	playlist.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Playlists.Update(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("Playlist with this name already exists"))
			return
		}
		response.Error(ctx, w, notFound(err, "Playlist not found"))
		return
	}
	response.OK(ctx, w, playlist, "Playlist updated successfully")
}

// UpdateThumbnail handles PATCH /playlist/update-thumbnail/c/{playlistId}.
func (h PlaylistHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := parseMultipart(r); err != nil {
		response.Error(ctx, w, err)
		return
	}

	file := formFile(r, "thumbnail")
	if file == nil {
		response.Error(ctx, w, apperrors.Validation("thumbnail file is missing"))
		return
	}
	if h.Media == nil {
		response.Error(ctx, w, apperrors.Upstream(errUnavailable, "Media storage unavailable"))
		return
	}
	thumbnail, err := h.Media.Upload(ctx, file)
	if err != nil {
		response.Error(ctx, w, uploadFailure(err, "thumbnail"))
		return
	}

	previous := playlist.Thumbnail
	playlist.Thumbnail = thumbnail
	playlist.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Playlists.Update(ctx, playlist); err != nil {
		reclaim(ctx, h.Reclaimer, thumbnail)
		response.Error(ctx, w, notFound(err, "Playlist not found"))
		return
	}

	reclaim(ctx, h.Reclaimer, previous)
	response.OK(ctx, w, playlist, "Playlist thumbnail updated successfully")
}
