package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// LikeHandler implements like toggling and listing for videos, comments and tweets.
type LikeHandler struct {
	Likes        LikeStore
	Videos       VideoStore
	Comments     CommentStore
	Tweets       TweetStore
	PageMaxLimit int
	NowFunc      func() time.Time
}

type toggleResponse struct {
	Liked bool        `json:"liked"`
	Like  models.Like `json:"like"`
}

func (h LikeHandler) ready() error {
	if h.Likes == nil || h.Videos == nil || h.Comments == nil || h.Tweets == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

// targetExists resolves the liked entity so likes never point at nothing
// when they are created.
func (h LikeHandler) targetExists(ctx context.Context, target models.LikeTarget) error {
	var err error
	switch target.Kind {
	case models.LikeKindVideo:
		_, err = h.Videos.FindByID(ctx, target.ID)
		return notFound(err, "Video not found")
	case models.LikeKindComment:
		_, err = h.Comments.FindByID(ctx, target.ID)
		return notFound(err, "Comment not found")
	case models.LikeKindTweet:
		_, err = h.Tweets.FindByID(ctx, target.ID)
		return notFound(err, "Tweet not found")
	default:
		return apperrors.Validation("Unsupported like target")
	}
}

func (h LikeHandler) target(r *http.Request, kind models.LikeKind, param string) (models.LikeTarget, error) {
	id, err := pathID(r, param)
	if err != nil {
		return models.LikeTarget{}, err
	}
	target := models.LikeTarget{Kind: kind, ID: id}
	if err := target.Validate(); err != nil {
		return models.LikeTarget{}, apperrors.Validation("Unsupported like target").WithCause(err)
	}
	return target, nil
}

// ToggleVideo handles POST /likes/video/c/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindVideo, "videoId")
}

// ToggleComment handles POST /likes/comment/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindComment, "commentId")
}

// ToggleTweet handles POST /likes/tweet/c/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindTweet, "tweetId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeKind, param string) {
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
	target, err := h.target(r, kind, param)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.targetExists(ctx, target); err != nil {
		response.Error(ctx, w, err)
		return
	}

	profile := user.Profile()
	result, err := h.Likes.Toggle(ctx, models.Like{
		ID:        models.NewID(),
		OwnerID:   user.ID,
		Owner:     &profile,
		Target:    target,
		CreatedAt: nowFrom(h.NowFunc),
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidLikeTarget) {
			response.Error(ctx, w, apperrors.Validation("Unsupported like target").WithCause(err))
			return
		}
		response.Error(ctx, w, err)
		return
	}

	message := "Unliked successfully"
	if result.Added {
		message = "Liked successfully"
	}
	response.OK(ctx, w, toggleResponse{Liked: result.Added, Like: result.Like}, message)
}

// ListVideo handles GET /likes/videos/c/{videoId}.
func (h LikeHandler) ListVideo(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.LikeKindVideo, "videoId")
}

// ListComment handles GET /likes/comments/c/{commentId}.
func (h LikeHandler) ListComment(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.LikeKindComment, "commentId")
}

// ListTweet handles GET /likes/tweets/c/{tweetId}.
func (h LikeHandler) ListTweet(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.LikeKindTweet, "tweetId")
}

func (h LikeHandler) list(w http.ResponseWriter, r *http.Request, kind models.LikeKind, param string) {
	ctx := r.Context()
	if err := h.ready(); err != nil {
		response.Error(ctx, w, err)
		return
	}
	target, err := h.target(r, kind, param)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if err := h.targetExists(ctx, target); err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := h.Likes.ListByTarget(ctx, target, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Likes fetched successfully")
}
