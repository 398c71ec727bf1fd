package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// VideoHandler implements video publishing and browsing endpoints.
type VideoHandler struct {
	Videos       VideoStore
	Users        UserStore
	Media        MediaUploader
	Reclaimer    AssetReclaimer
	PageMaxLimit int
	NowFunc      func() time.Time
}

type videoDetailsRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

func (req *videoDetailsRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
}

type publishStatus struct {
	VideoID     string `json:"videoId"`
	IsPublished bool   `json:"isPublished"`
}

func (h VideoHandler) ready() error {
	if h.Videos == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

// ownedVideo loads the video named by the path and checks the caller owns it.
func (h VideoHandler) ownedVideo(r *http.Request) (models.Video, error) {
	user, err := currentUser(r)
	if err != nil {
		return models.Video{}, err
	}
	if err := h.ready(); err != nil {
		return models.Video{}, err
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return models.Video{}, err
	}
	video, err := h.Videos.FindByID(r.Context(), videoID)
	if err != nil {
		return models.Video{}, notFound(err, "Video not found")
	}
	if err := requireOwner(video.OwnerID, user, "video"); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

// Publish handles POST /videos/publishVideo.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	req := videoDetailsRequest{Title: formValue(r, "title"), Description: formValue(r, "description")}
	if err := validateRequest(req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	videoFile := formFile(r, "videoFile")
	thumbnailFile := formFile(r, "thumbnail")
	if videoFile == nil || thumbnailFile == nil {
		response.Error(ctx, w, apperrors.Validation("Video file and thumbnail are required"))
		return
	}
	if h.Media == nil {
		response.Error(ctx, w, apperrors.Upstream(errUnavailable, "Media storage unavailable"))
		return
	}

	videoAsset, duration, err := h.Media.UploadVideo(ctx, videoFile)
	if err != nil {
		response.Error(ctx, w, uploadFailure(err, "videoFile"))
		return
	}
	thumbnail, err := h.Media.Upload(ctx, thumbnailFile)
	if err != nil {
		reclaim(ctx, h.Reclaimer, videoAsset)
		response.Error(ctx, w, uploadFailure(err, "thumbnail"))
		return
	}

	now := nowFrom(h.NowFunc)
	video := models.Video{
		ID:          models.NewID(),
		VideoFile:   videoAsset,
		Thumbnail:   thumbnail,
		Title:       req.Title,
		Description: req.Description,
		Duration:    duration,
		IsPublished: true,
		OwnerID:     user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Videos.Create(ctx, video); err != nil {
		reclaim(ctx, h.Reclaimer, videoAsset, thumbnail)
		response.Error(ctx, w, err)
		return
	}

	profile := user.Profile()
	video.Owner = &profile
	logging.FromContext(ctx).Info("video published", "video_id", video.ID, "duration", duration)
	response.Created(ctx, w, video, "Video published successfully")
}

// List handles GET /videos: published videos, optionally of one owner.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	filter := repositories.VideoFilter{
		OwnerID:       strings.TrimSpace(r.URL.Query().Get("userId")),
		PublishedOnly: true,
	}
	page, err := h.Videos.List(ctx, filter, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Videos fetched successfully")
}

// ListByChannel handles GET /videos/u/{username}. Owners also see their
// unpublished videos.
func (h VideoHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
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
	if h.Users == nil {
		response.Error(ctx, w, apperrors.Internal(errUnavailable, "Something went wrong"))
		return
	}
	username, err := pathID(r, "username")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	channel, err := h.Users.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		response.Error(ctx, w, notFound(err, "Channel does not exist"))
		return
	}

	filter := repositories.VideoFilter{OwnerID: channel.ID, PublishedOnly: channel.ID != viewer.ID}
	page, err := h.Videos.List(ctx, filter, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Channel videos fetched successfully")
}

// Get handles GET /videos/c/{videoId}. Unpublished videos are only visible
// to their owner.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	if !visibleTo(video, viewer.ID) {
		response.Error(ctx, w, apperrors.NotFound("Video not found"))
		return
	}
	response.OK(ctx, w, video, "Video fetched successfully")
}

// visibleTo reports whether viewerID may see video. Unpublished videos are
// visible to their owner only.
func visibleTo(video models.Video, viewerID string) bool {
	return video.IsPublished || video.OwnerID == viewerID
}

// Update handles PATCH /videos/c/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.ownedVideo(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req videoDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	video.Title = req.Title
	video.Description = req.Description
	video.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Videos.Update(ctx, video); err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}
	response.OK(ctx, w, video, "Video updated successfully")
}

// UpdateThumbnail handles PATCH /videos/c/thumbnail/{videoId}.
func (h VideoHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.ownedVideo(r)
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

	previous := video.Thumbnail
	video.Thumbnail = thumbnail
	video.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Videos.Update(ctx, video); err != nil {
		reclaim(ctx, h.Reclaimer, thumbnail)
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}

	reclaim(ctx, h.Reclaimer, previous)
	response.OK(ctx, w, video, "Thumbnail updated successfully")
}

// Delete handles DELETE /videos/c/{videoId}, reclaiming its media.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.ownedVideo(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}

	reclaim(ctx, h.Reclaimer, video.VideoFile, video.Thumbnail)
	response.OK(ctx, w, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /videos/c/toggle/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.ownedVideo(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	published, err := h.Videos.TogglePublish(ctx, video.ID, nowFrom(h.NowFunc))
	if err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}
	response.OK(ctx, w, publishStatus{VideoID: video.ID, IsPublished: published}, "Publish status toggled successfully")
}
