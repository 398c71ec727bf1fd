package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
	"github.com/vidtube/backend/internal/repositories"
)

func byTime[T any](field func(T) time.Time) query.Compare[T] {
	return func(a, b T) int {
		return field(a).Compare(field(b))
	}
}

type inMemoryUserStore struct {
	users   []models.User
	history map[string][]string
	videos  *inMemoryVideoStore
	subs    *inMemorySubscriptionStore
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{history: make(map[string][]string)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users = append(s.users, user)
	return nil
}

func (s *inMemoryUserStore) find(match func(models.User) bool) (models.User, error) {
	for _, user := range s.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *inMemoryUserStore) ExistsByUsernameOrEmail(_ context.Context, username, email, excludeID string) (bool, error) {
	_, err := s.find(func(u models.User) bool {
		return u.ID != excludeID && (u.Username == username || u.Email == email)
	})
	return err == nil, nil
}

func (s *inMemoryUserStore) Update(_ context.Context, user models.User) error {
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users[i] = user
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *inMemoryUserStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, err
	}
	profile := models.ChannelProfile{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
	}
	if s.subs != nil {
		for _, sub := range s.subs.subs {
			if sub.ChannelID == user.ID {
				profile.Subscribers++
				if sub.SubscriberID == viewerID {
					profile.IsSubscribed = true
				}
			}
			if sub.SubscriberID == user.ID {
				profile.SubscribedTo++
			}
		}
	}
	return profile, nil
}

func (s *inMemoryUserStore) AddToWatchHistory(_ context.Context, userID, videoID string, _ time.Time) (bool, error) {
	for _, id := range s.history[userID] {
		if id == videoID {
			return false, nil
		}
	}
	s.history[userID] = append(s.history[userID], videoID)
	return true, nil
}

func (s *inMemoryUserStore) WatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	videos := []models.Video{}
	for _, id := range s.history[userID] {
		if s.videos == nil {
			break
		}
		if video, err := s.videos.FindByID(ctx, id); err == nil {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

type inMemoryVideoStore struct {
	videos []models.Video
}

var videoCompare = map[string]query.Compare[models.Video]{
	query.DefaultSort: byTime(func(v models.Video) time.Time { return v.CreatedAt }),
	"title":           func(a, b models.Video) int { return strings.Compare(a.Title, b.Title) },
	"views":           func(a, b models.Video) int { return int(a.Views - b.Views) },
}

func (s *inMemoryVideoStore) index(id string) int {
	for i, video := range s.videos {
		if video.ID == id {
			return i
		}
	}
	return -1
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos = append(s.videos, video)
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	if i := s.index(id); i >= 0 {
		return s.videos[i], nil
	}
	return models.Video{}, repositories.ErrNotFound
}

func (s *inMemoryVideoStore) List(_ context.Context, filter repositories.VideoFilter, params query.Params) (query.Page[models.Video], error) {
	docs, total := query.Apply(s.videos, func(v models.Video) bool {
		if filter.PublishedOnly && !v.IsPublished {
			return false
		}
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			return false
		}
		return query.ContainsFold(v.Title, params.Query)
	}, videoCompare, params)
	return query.NewPage(docs, total, params), nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	i := s.index(video.ID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.videos[i] = video
	return nil
}

func (s *inMemoryVideoStore) TogglePublish(_ context.Context, id string, at time.Time) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, repositories.ErrNotFound
	}
	s.videos[i].IsPublished = !s.videos[i].IsPublished
	s.videos[i].UpdatedAt = at
	return s.videos[i].IsPublished, nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	i := s.index(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.videos[i].Views++
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	i := s.index(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.videos = append(s.videos[:i], s.videos[i+1:]...)
	return nil
}

type inMemoryCommentStore struct {
	comments map[string]models.Comment
	order    []string
}

func newInMemoryCommentStore() *inMemoryCommentStore {
	return &inMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	s.order = append(s.order, comment.ID)
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) ListByVideo(_ context.Context, videoID string, params query.Params) (query.Page[models.Comment], error) {
	all := make([]models.Comment, 0, len(s.order))
	for _, id := range s.order {
		if comment, ok := s.comments[id]; ok {
			all = append(all, comment)
		}
	}
	docs, total := query.Apply(all, func(c models.Comment) bool {
		return c.VideoID == videoID && query.ContainsFold(c.Content, params.Query)
	}, map[string]query.Compare[models.Comment]{
		query.DefaultSort: byTime(func(c models.Comment) time.Time { return c.CreatedAt }),
	}, params)
	return query.NewPage(docs, total, params), nil
}

func (s *inMemoryCommentStore) Update(_ context.Context, comment models.Comment) error {
	if _, ok := s.comments[comment.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type inMemoryTweetStore struct {
	tweets []models.Tweet
}

func (s *inMemoryTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets = append(s.tweets, tweet)
	return nil
}

func (s *inMemoryTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	for _, tweet := range s.tweets {
		if tweet.ID == id {
			return tweet, nil
		}
	}
	return models.Tweet{}, repositories.ErrNotFound
}

func (s *inMemoryTweetStore) List(_ context.Context, ownerID string, params query.Params) (query.Page[models.Tweet], error) {
	docs, total := query.Apply(s.tweets, func(t models.Tweet) bool {
		return (ownerID == "" || t.OwnerID == ownerID) && query.ContainsFold(t.Content, params.Query)
	}, map[string]query.Compare[models.Tweet]{
		query.DefaultSort: byTime(func(t models.Tweet) time.Time { return t.CreatedAt }),
	}, params)
	return query.NewPage(docs, total, params), nil
}

func (s *inMemoryTweetStore) Update(_ context.Context, tweet models.Tweet) error {
	for i := range s.tweets {
		if s.tweets[i].ID == tweet.ID {
			s.tweets[i] = tweet
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *inMemoryTweetStore) Delete(_ context.Context, id string) error {
	for i := range s.tweets {
		if s.tweets[i].ID == id {
			s.tweets = append(s.tweets[:i], s.tweets[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type inMemoryLikeStore struct {
	likes []models.Like
}

func (s *inMemoryLikeStore) Toggle(_ context.Context, like models.Like) (models.ToggleResult, error) {
	if err := like.Target.Validate(); err != nil {
		return models.ToggleResult{}, err
	}
	for i, existing := range s.likes {
		if existing.OwnerID == like.OwnerID && existing.Target == like.Target {
			s.likes = append(s.likes[:i], s.likes[i+1:]...)
			return models.ToggleResult{Added: false, Like: existing}, nil
		}
	}
	s.likes = append(s.likes, like)
	return models.ToggleResult{Added: true, Like: like}, nil
}

func (s *inMemoryLikeStore) ListByTarget(_ context.Context, target models.LikeTarget, params query.Params) (query.Page[models.Like], error) {
	docs, total := query.Apply(s.likes, func(l models.Like) bool { return l.Target == target },
		map[string]query.Compare[models.Like]{
			query.DefaultSort: byTime(func(l models.Like) time.Time { return l.CreatedAt }),
		}, params)
	return query.NewPage(docs, total, params), nil
}

type inMemorySubscriptionStore struct {
	subs []models.Subscription
}

func (s *inMemorySubscriptionStore) Subscribe(_ context.Context, sub models.Subscription) error {
	for _, existing := range s.subs {
		if existing.SubscriberID == sub.SubscriberID && existing.ChannelID == sub.ChannelID {
			return repositories.ErrConflict
		}
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *inMemorySubscriptionStore) Unsubscribe(_ context.Context, subscriberID, channelID string) error {
	for i, existing := range s.subs {
		if existing.SubscriberID == subscriberID && existing.ChannelID == channelID {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *inMemorySubscriptionStore) list(keep func(models.Subscription) bool, params query.Params) query.Page[models.Subscription] {
	docs, total := query.Apply(s.subs, keep, map[string]query.Compare[models.Subscription]{
		query.DefaultSort: byTime(func(s models.Subscription) time.Time { return s.CreatedAt }),
	}, params)
	return query.NewPage(docs, total, params)
}

func (s *inMemorySubscriptionStore) ListSubscribers(_ context.Context, channelID string, params query.Params) (query.Page[models.Subscription], error) {
	return s.list(func(sub models.Subscription) bool { return sub.ChannelID == channelID }, params), nil
}

func (s *inMemorySubscriptionStore) ListSubscribed(_ context.Context, subscriberID string, params query.Params) (query.Page[models.Subscription], error) {
	return s.list(func(sub models.Subscription) bool { return sub.SubscriberID == subscriberID }, params), nil
}

type inMemoryPlaylistStore struct {
	playlists []models.Playlist
	videos    *inMemoryVideoStore
}

func (s *inMemoryPlaylistStore) index(id string) int {
	for i, p := range s.playlists {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	for _, p := range s.playlists {
		if p.Name == playlist.Name {
			return repositories.ErrConflict
		}
	}
	s.playlists = append(s.playlists, playlist)
	return nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	i := s.index(id)
	if i < 0 {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p := s.playlists[i]
	p.VideoIDs = append([]string{}, p.VideoIDs...)
	return p, nil
}

func (s *inMemoryPlaylistStore) FindByName(_ context.Context, name string) (models.Playlist, error) {
	for _, p := range s.playlists {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Playlist{}, repositories.ErrNotFound
}

func (s *inMemoryPlaylistStore) ListByOwner(_ context.Context, ownerID string, params query.Params) (query.Page[models.Playlist], error) {
	docs, total := query.Apply(s.playlists, func(p models.Playlist) bool {
		return p.OwnerID == ownerID && query.ContainsFold(p.Name, params.Query)
	}, map[string]query.Compare[models.Playlist]{
		query.DefaultSort: byTime(func(p models.Playlist) time.Time { return p.CreatedAt }),
	}, params)
	return query.NewPage(docs, total, params), nil
}

func (s *inMemoryPlaylistStore) Detail(ctx context.Context, id string) (models.PlaylistDetail, error) {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return models.PlaylistDetail{}, err
	}
	detail := models.PlaylistDetail{Playlist: p}
	for _, videoID := range p.VideoIDs {
		if video, err := s.videos.FindByID(ctx, videoID); err == nil {
			detail.Videos = append(detail.Videos, video)
		}
	}
	return detail, nil
}

func (s *inMemoryPlaylistStore) Update(_ context.Context, playlist models.Playlist) error {
	i := s.index(playlist.ID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.playlists[i] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	i := s.index(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.playlists = append(s.playlists[:i], s.playlists[i+1:]...)
	return nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string, at time.Time) error {
	i := s.index(playlistID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	if s.playlists[i].Contains(videoID) {
		return repositories.ErrConflict
	}
	s.playlists[i].VideoIDs = append(s.playlists[i].VideoIDs, videoID)
	s.playlists[i].UpdatedAt = at
	return nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string, at time.Time) error {
	i := s.index(playlistID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	ids := s.playlists[i].VideoIDs
	for j, id := range ids {
		if id == videoID {
			s.playlists[i].VideoIDs = append(ids[:j:j], ids[j+1:]...)
			s.playlists[i].UpdatedAt = at
			return nil
		}
	}
	return repositories.ErrNotFound
}

var errUploadFailed = errors.New("object store unreachable")

// stubMedia hands out sequential storage ids. failOn names the upload
// (1-based) that fails; zero never fails.
type stubMedia struct {
	uploads  int
	failOn   int
	duration float64
}

func (m *stubMedia) next(file *multipart.FileHeader) (models.Asset, error) {
	m.uploads++
	if m.failOn != 0 && m.uploads == m.failOn {
		return models.Asset{}, errUploadFailed
	}
	id := "obj-" + file.Filename
	return models.Asset{URL: "https://cdn.example.com/" + id, StorageID: id}, nil
}

func (m *stubMedia) Upload(_ context.Context, file *multipart.FileHeader) (models.Asset, error) {
	return m.next(file)
}

func (m *stubMedia) UploadVideo(_ context.Context, file *multipart.FileHeader) (models.Asset, float64, error) {
	asset, err := m.next(file)
	if err != nil {
		return models.Asset{}, 0, err
	}
	return asset, m.duration, nil
}

type recordingReclaimer struct {
	assets []models.Asset
}

func (r *recordingReclaimer) Enqueue(_ context.Context, asset models.Asset) error {
	r.assets = append(r.assets, asset)
	return nil
}

func (r *recordingReclaimer) storageIDs() []string {
	ids := make([]string, 0, len(r.assets))
	for _, asset := range r.assets {
		ids = append(ids, asset.StorageID)
	}
	return ids
}
