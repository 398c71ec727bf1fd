package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered identifier, so id order follows creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Asset references a file held by the external media store.
type Asset struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
}

// IsZero reports whether the asset points at nothing.
func (a Asset) IsZero() bool {
	return a.URL == "" && a.StorageID == ""
}

// User represents an account within the VidTube platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Password     string    `json:"-"`
	Avatar       Asset     `json:"avatar"`
	CoverImage   Asset     `json:"coverImage"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile returns the reduced public view of the user.
func (u User) Profile() OwnerProfile {
	return OwnerProfile{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

// OwnerProfile is the subset of a user attached to joined documents.
type OwnerProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   Asset  `json:"avatar"`
}

// ChannelProfile is a user's public channel page.
type ChannelProfile struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Avatar       Asset  `json:"avatar"`
	CoverImage   Asset  `json:"coverImage"`
	Subscribers  int64  `json:"subscribers"`
	SubscribedTo int64  `json:"subscribedTo"`
	IsSubscribed bool   `json:"isSubscribed"`
}

// Video is an uploaded video and its metadata.
type Video struct {
	ID          string        `json:"id"`
	VideoFile   Asset         `json:"videoFile"`
	Thumbnail   Asset         `json:"thumbnail"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    float64       `json:"duration"`
	Views       int64         `json:"views"`
	IsPublished bool          `json:"isPublished"`
	OwnerID     string        `json:"ownerId"`
	Owner       *OwnerProfile `json:"owner,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Comment is a user's remark on a video.
type Comment struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	VideoID   string        `json:"videoId"`
	OwnerID   string        `json:"ownerId"`
	Owner     *OwnerProfile `json:"owner,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Tweet is a short text post on a user's channel.
type Tweet struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	OwnerID   string        `json:"ownerId"`
	Owner     *OwnerProfile `json:"owner,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Playlist is an ordered, duplicate-free collection of videos.
type Playlist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Thumbnail   Asset         `json:"thumbnail"`
	OwnerID     string        `json:"ownerId"`
	Owner       *OwnerProfile `json:"owner,omitempty"`
	VideoIDs    []string      `json:"videos"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Contains reports whether the playlist already holds the video.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// PlaylistDetail is a playlist with its videos resolved.
type PlaylistDetail struct {
	Playlist
	Videos []Video `json:"videos"`
}

// MarshalJSON replaces the id list with the resolved videos.
func (d PlaylistDetail) MarshalJSON() ([]byte, error) {
	type playlist Playlist
	videos := d.Videos
	if videos == nil {
		videos = []Video{}
	}
	return json.Marshal(struct {
		playlist
		Videos []Video `json:"videos"`
	}{playlist: playlist(d.Playlist), Videos: videos})
}

// Subscription is an edge in the follows graph: Subscriber follows Channel.
type Subscription struct {
	ID           string        `json:"id"`
	SubscriberID string        `json:"subscriberId"`
	ChannelID    string        `json:"channelId"`
	Profile      *OwnerProfile `json:"profile,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// LikeKind names the type of entity a like points at.
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindComment LikeKind = "comment"
	LikeKindTweet   LikeKind = "tweet"
)

// ErrInvalidLikeTarget is returned for a like that does not point at exactly one entity.
var ErrInvalidLikeTarget = errors.New("like must reference exactly one of video, comment or tweet")

// LikeTarget identifies the single entity a like applies to.
type LikeTarget struct {
	Kind LikeKind
	ID   string
}

// Validate checks the target names a known kind and a non-empty id.
func (t LikeTarget) Validate() error {
	switch t.Kind {
	case LikeKindVideo, LikeKindComment, LikeKindTweet:
	default:
		return ErrInvalidLikeTarget
	}
	if t.ID == "" {
		return ErrInvalidLikeTarget
	}
	return nil
}

// Like records that Owner likes Target.
type Like struct {
	ID        string
	OwnerID   string
	Owner     *OwnerProfile
	Target    LikeTarget
	CreatedAt time.Time
}

type likeJSON struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"ownerId"`
	Owner        *OwnerProfile `json:"owner,omitempty"`
	LikedVideo   *string       `json:"likedVideo,omitempty"`
	LikedComment *string       `json:"likedComment,omitempty"`
	LikedTweet   *string       `json:"likedTweet,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// MarshalJSON renders the target as exactly one of likedVideo, likedComment or likedTweet.
func (l Like) MarshalJSON() ([]byte, error) {
	out := likeJSON{ID: l.ID, OwnerID: l.OwnerID, Owner: l.Owner, CreatedAt: l.CreatedAt}
	id := l.Target.ID
	switch l.Target.Kind {
	case LikeKindVideo:
		out.LikedVideo = &id
	case LikeKindComment:
		out.LikedComment = &id
	case LikeKindTweet:
		out.LikedTweet = &id
	default:
		return nil, ErrInvalidLikeTarget
	}
	return json.Marshal(out)
}

// ToggleResult reports what a toggle operation did.
type ToggleResult struct {
	Added bool
	Like  Like
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
