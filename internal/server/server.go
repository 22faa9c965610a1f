package server

import (
	"log"
	"strings"
	"time"

	"anoa.com/photoshare/internal/config"
	"anoa.com/photoshare/internal/middleware"
	"anoa.com/photoshare/pkg/database"
	"anoa.com/photoshare/pkg/ratelimiter"
	"anoa.com/photoshare/pkg/storage"

	commentHttp "anoa.com/photoshare/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/photoshare/internal/modules/comment/repository"
	commentService "anoa.com/photoshare/internal/modules/comment/service"

	feedService "anoa.com/photoshare/internal/modules/feed/service"

	followHttp "anoa.com/photoshare/internal/modules/follow/delivery/http"
	followRepo "anoa.com/photoshare/internal/modules/follow/repository"
	followService "anoa.com/photoshare/internal/modules/follow/service"

	hashtagRepo "anoa.com/photoshare/internal/modules/hashtag/repository"
	hashtagService "anoa.com/photoshare/internal/modules/hashtag/service"

	likeHttp "anoa.com/photoshare/internal/modules/like/delivery/http"
	likeRepo "anoa.com/photoshare/internal/modules/like/repository"
	likeService "anoa.com/photoshare/internal/modules/like/service"

	notiHttp "anoa.com/photoshare/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/photoshare/internal/modules/notification/repository"
	notifService "anoa.com/photoshare/internal/modules/notification/service"

	postHttp "anoa.com/photoshare/internal/modules/post/delivery/http"
	postRepo "anoa.com/photoshare/internal/modules/post/repository"
	postService "anoa.com/photoshare/internal/modules/post/service"

	profileHttp "anoa.com/photoshare/internal/modules/profile/delivery/http"
	profileService "anoa.com/photoshare/internal/modules/profile/service"

	searchHttp "anoa.com/photoshare/internal/modules/search/delivery/http"
	searchService "anoa.com/photoshare/internal/modules/search/service"

	userHttp "anoa.com/photoshare/internal/modules/user/delivery/http"
	userRepo "anoa.com/photoshare/internal/modules/user/repository"
	userService "anoa.com/photoshare/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer wires every module. redisClient may be nil, in which case rate limits are off.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	transactor := database.NewTransactor(db)
	limiter := ratelimiter.New(redisClient)

	var imageStorage storage.ImageStorage
	if cloudinaryStorage, err := storage.NewCloudinaryStorage(); err != nil {
		log.Printf("Cloudinary storage disabled: %v", err)
	} else {
		imageStorage = cloudinaryStorage
	}

	// Meilisearch is optional. Without it user search runs against the database.
	var meiliSvc searchService.MeiliSearchService
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		meiliSvc = searchService.NewMeiliSearchService(meiliClient)
	}

	userRepository := userRepo.NewUserRepository(db)
	postRepository := postRepo.NewPostRepository(db)
	commentRepository := commentRepo.NewCommentRepository(db)
	likeRepository := likeRepo.NewLikeRepository(db)
	hashtagRepository := hashtagRepo.NewHashtagRepository(db)

	notificationSvc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), transactor, cfg.DefaultAvatarURL)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc)

	composer := feedService.NewComposer(likeRepository, commentRepository, cfg.DefaultAvatarURL)

	followSvc := followService.NewFollowService(followRepo.NewFollowRepository(db), userRepository, notificationSvc, transactor, cfg.DefaultAvatarURL)
	followHandler := followHttp.NewFollowHandler(followSvc)

	likeHandler := likeHttp.NewLikeHandler(likeService.NewLikeService(likeRepository, transactor))

	commentSvc := commentService.NewCommentService(commentRepository, postRepository, notificationSvc, composer, transactor, limiter, cfg.RateLimitComment)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	postSvc := postService.NewPostService(
		postRepository,
		hashtagService.NewHashtagService(hashtagRepository),
		followSvc,
		commentSvc,
		composer,
		transactor,
		imageStorage,
		meiliSvc,
		limiter,
		cfg.RateLimitPost,
		cfg.CloudinaryUploadFolder,
	)
	postHandler := postHttp.NewPostHandler(postSvc)

	profileSvc := profileService.NewProfileService(userRepository, postSvc, followSvc, imageStorage, meiliSvc, cfg.CloudinaryUploadFolder, cfg.DefaultAvatarURL)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	authSvc := userService.NewAuthService(userRepository, postRepository, imageStorage, meiliSvc, cfg.JWTSecret, cfg.JWTTTL, cfg.DefaultAvatarURL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	searchSvc := searchService.NewSearchService(userRepository, hashtagRepository, meiliSvc, cfg.DefaultAvatarURL)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Reads that render differently for a signed-in viewer
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/posts", postHandler.GetFeed)
		public.GET("/posts/:post_id", postHandler.GetPost)
		public.GET("/users/:username", profileHandler.GetProfileByUsername)
		public.GET("/users/:username/followers", followHandler.GetFollowers)
		public.GET("/users/:username/following", followHandler.GetFollowing)
		public.GET("/explore/tags/:hashtag", postHandler.GetByHashtag)
		public.GET("/search", searchHandler.Search)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Post routes
		protected.POST("/posts", postHandler.CreatePost)
		protected.PUT("/posts/:post_id", postHandler.UpdatePost)
		protected.DELETE("/posts/:post_id", postHandler.DeletePost)
		protected.POST("/posts/:post_id/like", likeHandler.TogglePostLike)
		protected.POST("/posts/:post_id/comments", commentHandler.CreateComment)

		// Comment routes
		protected.PUT("/comments/:comment_id", commentHandler.UpdateComment)
		protected.POST("/comments/:comment_id/like", likeHandler.ToggleCommentLike)

		// Social graph
		protected.POST("/users/:username/follow", followHandler.ToggleFollow)

		// Profile routes
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.DELETE("/profile", authHandler.DeleteAccount)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.ToggleRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
