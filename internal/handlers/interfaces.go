package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
	"github.com/vidtube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, error)
	Update(ctx context.Context, user models.User) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	AddToWatchHistory(ctx context.Context, userID, videoID string, at time.Time) (bool, error)
	WatchHistory(ctx context.Context, userID string) ([]models.Video, error)
}

// SessionManager issues, rotates and verifies authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, string, error)
	Revoke(ctx context.Context, userID string) error
	VerifyAccess(token string) (string, error)
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter repositories.VideoFilter, params query.Params) (query.Page[models.Video], error)
	Update(ctx context.Context, video models.Video) error
	TogglePublish(ctx context.Context, id string, at time.Time) (bool, error)
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, params query.Params) (query.Page[models.Comment], error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	List(ctx context.Context, ownerID string, params query.Params) (query.Page[models.Tweet], error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
}

// LikeStore toggles and lists likes.
type LikeStore interface {
	Toggle(ctx context.Context, like models.Like) (models.ToggleResult, error)
	ListByTarget(ctx context.Context, target models.LikeTarget, params query.Params) (query.Page[models.Like], error)
}

// SubscriptionStore captures the follows graph.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, sub models.Subscription) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
	ListSubscribers(ctx context.Context, channelID string, params query.Params) (query.Page[models.Subscription], error)
	ListSubscribed(ctx context.Context, subscriberID string, params query.Params) (query.Page[models.Subscription], error)
}

// PlaylistStore captures persistence for playlists and their membership.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	FindByName(ctx context.Context, name string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, params query.Params) (query.Page[models.Playlist], error)
	Detail(ctx context.Context, id string) (models.PlaylistDetail, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) error
	RemoveVideo(ctx context.Context, playlistID, videoID string, at time.Time) error
}

// MediaUploader stages multipart files and stores them in the media store.
type MediaUploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (models.Asset, error)
	UploadVideo(ctx context.Context, file *multipart.FileHeader) (models.Asset, float64, error)
}

// AssetReclaimer schedules background deletion of assets no record references.
type AssetReclaimer interface {
	Enqueue(ctx context.Context, asset models.Asset) error
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
