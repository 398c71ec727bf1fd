package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments     CommentStore
	Videos       VideoStore
	PageMaxLimit int
	NowFunc      func() time.Time
}

type contentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func (req *contentRequest) normalize() {
	req.Content = strings.TrimSpace(req.Content)
}

func (h CommentHandler) ready() error {
	if h.Comments == nil || h.Videos == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

func (h CommentHandler) ownedComment(r *http.Request) (models.Comment, error) {
	user, err := currentUser(r)
	if err != nil {
		return models.Comment{}, err
	}
	if err := h.ready(); err != nil {
		return models.Comment{}, err
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		return models.Comment{}, err
	}
	comment, err := h.Comments.FindByID(r.Context(), commentID)
	if err != nil {
		return models.Comment{}, notFound(err, "Comment not found")
	}
	if err := requireOwner(comment.OwnerID, user, "comment"); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// Add handles POST /comments/add-comments/c/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
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
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}

	now := nowFrom(h.NowFunc)
	profile := user.Profile()
	comment := models.Comment{
		ID:        models.NewID(),
		Content:   req.Content,
		VideoID:   videoID,
		OwnerID:   user.ID,
		Owner:     &profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.Created(ctx, w, comment, "Comment added successfully")
}

// Update handles PATCH /comments/update-comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comment, err := h.ownedComment(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	comment.Content = req.Content
	comment.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Comments.Update(ctx, comment); err != nil {
		response.Error(ctx, w, notFound(err, "Comment not found"))
		return
	}
	response.OK(ctx, w, comment, "Comment updated successfully")
}

// Delete handles DELETE /comments/delete-comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comment, err := h.ownedComment(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		response.Error(ctx, w, notFound(err, "Comment not found"))
		return
	}
	response.OK(ctx, w, struct{}{}, "Comment deleted successfully")
}

// List handles GET /comments/c/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		response.Error(ctx, w, notFound(err, "Video not found"))
		return
	}

	page, err := h.Comments.ListByVideo(ctx, videoID, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Comments fetched successfully")
}
