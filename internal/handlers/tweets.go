package handlers

import (
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// TweetHandler implements channel post endpoints.
type TweetHandler struct {
	Tweets       TweetStore
	PageMaxLimit int
	NowFunc      func() time.Time
}

func (h TweetHandler) ready() error {
	if h.Tweets == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

func (h TweetHandler) ownedTweet(r *http.Request) (models.Tweet, error) {
	user, err := currentUser(r)
	if err != nil {
		return models.Tweet{}, err
	}
	if err := h.ready(); err != nil {
		return models.Tweet{}, err
	}
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		return models.Tweet{}, err
	}
	tweet, err := h.Tweets.FindByID(r.Context(), tweetID)
	if err != nil {
		return models.Tweet{}, notFound(err, "Tweet not found")
	}
	if err := requireOwner(tweet.OwnerID, user, "tweet"); err != nil {
		return models.Tweet{}, err
	}
	return tweet, nil
}

// Add handles POST /tweets/add-tweet.
func (h TweetHandler) Add(w http.ResponseWriter, r *http.Request) {
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

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	now := nowFrom(h.NowFunc)
	profile := user.Profile()
	tweet := models.Tweet{
		ID:        models.NewID(),
		Content:   req.Content,
		OwnerID:   user.ID,
		Owner:     &profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.Created(ctx, w, tweet, "Tweet added successfully")
}

// Update handles POST /tweets/update-tweet/c/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweet, err := h.ownedTweet(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(ctx, w, err)
		return
	}

	tweet.Content = req.Content
	tweet.UpdatedAt = nowFrom(h.NowFunc)
	if err := h.Tweets.Update(ctx, tweet); err != nil {
		response.Error(ctx, w, notFound(err, "Tweet not found"))
		return
	}
	response.OK(ctx, w, tweet, "Tweet updated successfully")
}

// Delete handles POST /tweets/delete-tweet/c/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweet, err := h.ownedTweet(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		response.Error(ctx, w, notFound(err, "Tweet not found"))
		return
	}
	response.OK(ctx, w, struct{}{}, "Tweet deleted successfully")
}

// ListMine handles GET /tweets: the caller's own tweets.
func (h TweetHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(r.Context(), w, err)
		return
	}
	h.list(w, r, user.ID)
}

// ListAll handles GET /tweets/all.
func (h TweetHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h TweetHandler) list(w http.ResponseWriter, r *http.Request, ownerID string) {
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

	page, err := h.Tweets.List(ctx, ownerID, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Tweets fetched successfully")
}
