package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// SubscriptionHandler implements the follows graph endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
	PageMaxLimit  int
	NowFunc       func() time.Time
}

func (h SubscriptionHandler) ready() error {
	if h.Subscriptions == nil || h.Users == nil {
		return apperrors.Internal(errUnavailable, "Something went wrong")
	}
	return nil
}

// channel resolves the channel named by the path.
func (h SubscriptionHandler) channel(r *http.Request) (models.User, error) {
	if err := h.ready(); err != nil {
		return models.User{}, err
	}
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return models.User{}, err
	}
	channel, err := h.Users.FindByID(r.Context(), channelID)
	if err != nil {
		return models.User{}, notFound(err, "Channel does not exist")
	}
	return channel, nil
}

// Subscribe handles POST /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
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
	channelID, err := pathID(r, "channelId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	if channelID == user.ID {
		response.Error(ctx, w, apperrors.Validation("You cannot subscribe to your own channel"))
		return
	}
	channel, err := h.channel(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	profile := channel.Profile()
	sub := models.Subscription{
		ID:           models.NewID(),
		SubscriberID: user.ID,
		ChannelID:    channel.ID,
		Profile:      &profile,
		CreatedAt:    nowFrom(h.NowFunc),
	}
	if err := h.Subscriptions.Subscribe(ctx, sub); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, apperrors.Conflict("Already subscribed"))
			return
		}
		response.Error(ctx, w, err)
		return
	}
	response.Created(ctx, w, sub, "Subscribed successfully")
}

// Unsubscribe handles DELETE /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
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
	channelID, err := pathID(r, "channelId")
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	if err := h.Subscriptions.Unsubscribe(ctx, user.ID, channelID); err != nil {
		response.Error(ctx, w, notFound(err, "Not subscribed to this channel"))
		return
	}
	response.OK(ctx, w, struct{}{}, "Unsubscribed successfully")
}

// Subscribers handles GET /subscriptions/c/subscribers/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channel, err := h.channel(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := h.Subscriptions.ListSubscribers(ctx, channel.ID, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Subscribers fetched successfully")
}

// Subscribed handles GET /subscriptions/c/subscribed/{channelId}: the
// channels the given user follows.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriber, err := h.channel(r)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	params, err := pageParams(r, h.PageMaxLimit)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}

	page, err := h.Subscriptions.ListSubscribed(ctx, subscriber.ID, params)
	if err != nil {
		response.Error(ctx, w, err)
		return
	}
	response.OK(ctx, w, page, "Subscribed channels fetched successfully")
}
