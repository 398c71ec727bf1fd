package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/response"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Sessions      SessionManager
	Media         MediaUploader
	Reclaimer     AssetReclaimer
	Database      HealthChecker
	AuthLimiter   middleware.RateLimiter

	SecureCookies bool
	PageMaxLimit  int
	PasswordCost  int
	NowFunc       func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	users := UserHandler{
		Users:         deps.Users,
		Videos:        deps.Videos,
		Sessions:      deps.Sessions,
		Media:         deps.Media,
		Reclaimer:     deps.Reclaimer,
		SecureCookies: deps.SecureCookies,
		PasswordCost:  deps.PasswordCost,
		NowFunc:       deps.NowFunc,
	}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, Reclaimer: deps.Reclaimer, PageMaxLimit: deps.PageMaxLimit, NowFunc: deps.NowFunc}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users, PageMaxLimit: deps.PageMaxLimit, NowFunc: deps.NowFunc}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Users: deps.Users, Media: deps.Media, Reclaimer: deps.Reclaimer, PageMaxLimit: deps.PageMaxLimit, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, PageMaxLimit: deps.PageMaxLimit, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments, Tweets: deps.Tweets, PageMaxLimit: deps.PageMaxLimit, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, PageMaxLimit: deps.PageMaxLimit, NowFunc: deps.NowFunc}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(r.Context(), w, apperrors.NotFound("Route not found"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Handle)

		limited := r.With(middleware.Limit(deps.AuthLimiter, "auth"))
		limited.Post("/users/register", users.Register)
		limited.Post("/users/login", users.Login)
		limited.Post("/users/refreshToken", users.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Sessions, deps.Users))

			r.Route("/users", func(r chi.Router) {
				r.Post("/logout", users.Logout)
				r.Post("/changePassword", users.ChangePassword)
				r.Get("/getCurrentUser", users.CurrentUser)
				r.Patch("/updateAccountDetails", users.UpdateAccountDetails)
				r.Patch("/updateUserAvatar", users.UpdateAvatar)
				r.Patch("/updateUserCoverImage", users.UpdateCoverImage)
				r.Post("/removeavatar", users.RemoveAvatar)
				r.Post("/removecoverimage", users.RemoveCoverImage)
				r.Get("/c/{username}", users.ChannelProfile)
				r.Get("/watchHistory", users.WatchHistory)
				r.Post("/watchHistory/c/{videoId}", users.AddToWatchHistory)
			})

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", videos.List)
				r.Post("/publishVideo", videos.Publish)
				r.Get("/u/{username}", videos.ListByChannel)
				r.Get("/c/{videoId}", videos.Get)
				r.Patch("/c/{videoId}", videos.Update)
				r.Delete("/c/{videoId}", videos.Delete)
				r.Patch("/c/thumbnail/{videoId}", videos.UpdateThumbnail)
				r.Patch("/c/toggle/{videoId}", videos.TogglePublish)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/c/{channelId}", subscriptions.Subscribe)
				r.Delete("/c/{channelId}", subscriptions.Unsubscribe)
				r.Get("/c/subscribers/{channelId}", subscriptions.Subscribers)
				r.Get("/c/subscribed/{channelId}", subscriptions.Subscribed)
			})

			r.Route("/playlist", func(r chi.Router) {
				r.Post("/createplaylist", playlists.Create)
				r.Get("/c/{userId}", playlists.ListByUser)
				r.Get("/user/c/{playlistId}", playlists.Get)
				r.Post("/{playlistId}/addVideo/c/{videoId}", playlists.AddVideo)
				r.Post("/{playlistId}/removeVideo/c/{videoId}", playlists.RemoveVideo)
				r.Delete("/delete/c/{playlistId}", playlists.Delete)
				r.Patch("/update/c/{playlistId}", playlists.Update)
				r.Patch("/update-thumbnail/c/{playlistId}", playlists.UpdateThumbnail)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Post("/add-comments/c/{videoId}", comments.Add)
				r.Patch("/update-comments/c/{commentId}", comments.Update)
				r.Delete("/delete-comments/c/{commentId}", comments.Delete)
				r.Get("/c/{videoId}", comments.List)
			})

			r.Route("/likes", func(r chi.Router) {
				r.Post("/video/c/{videoId}", likes.ToggleVideo)
				r.Post("/comment/c/{commentId}", likes.ToggleComment)
				r.Post("/tweet/c/{tweetId}", likes.ToggleTweet)
				r.Get("/videos/c/{videoId}", likes.ListVideo)
				r.Get("/comments/c/{commentId}", likes.ListComment)
				r.Get("/tweets/c/{tweetId}", likes.ListTweet)
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Get("/", tweets.ListMine)
				r.Get("/all", tweets.ListAll)
				r.Post("/add-tweet", tweets.Add)
				r.Post("/update-tweet/c/{tweetId}", tweets.Update)
				r.Post("/delete-tweet/c/{tweetId}", tweets.Delete)
			})
		})
	})
}
