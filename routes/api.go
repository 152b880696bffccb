package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/amitalon123/Video-Streaming-Project/db"
	"github.com/amitalon123/Video-Streaming-Project/logger"
	m "github.com/amitalon123/Video-Streaming-Project/models"
	"github.com/amitalon123/Video-Streaming-Project/query"
	"github.com/amitalon123/Video-Streaming-Project/recommend"
)

var limiter = rate.NewLimiter(50, 100)

func rateLimitMiddleware(c *gin.Context) {
	if !limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
		c.Abort()
		return
	}
	c.Next()
}

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-XSS-Protection", "1; mode=block")
	c.Next()
}

func loadEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file loaded", "error", err)
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// SetupRouter wires every endpoint onto a fresh engine. Split out of
// ExposeAPI so handler tests can drive the router directly.
func SetupRouter(store db.DBService, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeaders)
	router.Use(rateLimitMiddleware)

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:8080",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour
	router.Use(cors.New(config))

	apiGroup := router.Group("/api")
	registerAuthRoutes(apiGroup, store, log)
	registerContentRoutes(apiGroup, store, log)
	registerGenreRoutes(apiGroup, store, log)

	protected := apiGroup.Group("")
	protected.Use(authMiddleware())
	registerProfileRoutes(protected, store, log)
	registerProgressRoutes(protected, store, log)

	return router
}

// ExposeAPI runs the HTTP server until SIGINT/SIGTERM and drains in-flight
// requests before exiting.
func ExposeAPI(store db.DBService, log *logger.Logger) {
	loadEnv(log)
	gin.SetMode(gin.ReleaseMode)

	router := SetupRouter(store, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to initialize server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "error", err)
	}
	log.Info("server exiting")
}

func registerContentRoutes(r *gin.RouterGroup, store db.DBService, log *logger.Logger) {
	content := r.Group("/content")

	content.GET("", func(c *gin.Context) {
		values := c.Request.URL.Query()

		filter, err := query.ParseFilter(values)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		sorts := query.ResolveSort(c.Query("sort"))
		page, err := query.ParsePage(values)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		items, err := store.ListContent(filter, sorts, page.Offset(), page.Limit)
		if err != nil {
			log.Error("listing content failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		total, err := store.CountContent(filter)
		if err != nil {
			log.Error("counting content failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"count":      len(items),
			"total":      total,
			"pagination": query.BuildPagination(page, total),
			"data":       items,
		})
	})

	content.GET("/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid content ID")
			return
		}
		item, err := store.FindContentByID(id)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Content not found")
			return
		}
		if err != nil {
			log.Error("finding content failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
	})

	content.POST("", authMiddleware(), func(c *gin.Context) {
		var payload struct {
			Type        string  `json:"type"`
			Title       string  `json:"title"`
			Description string  `json:"description"`
			ReleaseYear int     `json:"releaseYear"`
			Rating      float64 `json:"rating"`
			Genres      []int   `json:"genres"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			fail(c, http.StatusBadRequest, "Invalid content data")
			return
		}

		item := m.Content{
			Type:        payload.Type,
			Title:       payload.Title,
			Description: payload.Description,
			ReleaseYear: payload.ReleaseYear,
			Rating:      payload.Rating,
		}
		if err := item.Validate(); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		created, err := store.InsertContent(item, payload.Genres)
		if err != nil {
			var verr *m.ValidationError
			if errors.As(err, &verr) {
				fail(c, http.StatusBadRequest, verr.Error())
				return
			}
			log.Error("creating content failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
	})

	content.PUT("/:id", authMiddleware(), func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid content ID")
			return
		}
		var upd m.ContentUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			fail(c, http.StatusBadRequest, "Invalid update data")
			return
		}
		if err := upd.Validate(); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		updated, err := store.UpdateContent(id, upd)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Content not found")
			return
		}
		if err != nil {
			var verr *m.ValidationError
			if errors.As(err, &verr) {
				fail(c, http.StatusBadRequest, verr.Error())
				return
			}
			log.Error("updating content failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	})

	content.DELETE("/:id", authMiddleware(), func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid content ID")
			return
		}
		err = store.DeleteContent(id)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Content not found")
			return
		}
		if err != nil {
			log.Error("deleting content failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	})

	content.PUT("/:id/views", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid content ID")
			return
		}
		views, err := store.IncrementViews(id)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Content not found")
			return
		}
		if err != nil {
			log.Error("incrementing views failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "View count updated", "views": views})
	})

	content.PUT("/:id/likes", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid content ID")
			return
		}
		var body struct {
			Action string `json:"action"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, `Invalid action, use "like" or "unlike"`)
			return
		}

		var likes int
		switch body.Action {
		case "like":
			likes, err = store.IncrementLikes(id)
		case "unlike":
			likes, err = store.DecrementLikes(id)
		default:
			fail(c, http.StatusBadRequest, `Invalid action, use "like" or "unlike"`)
			return
		}
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Content not found")
			return
		}
		if err != nil {
			log.Error("updating likes failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Content %sd successfully", body.Action),
			"likes":   likes,
		})
	})

	content.GET("/popular/all", func(c *gin.Context) {
		limit, err := query.ParseLimit(c.Request.URL.Query(), query.DefaultLimit)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		items, err := store.PopularContent(limit)
		if err != nil {
			log.Error("listing popular content failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "data": items})
	})

	content.GET("/newest/genre/:genreId", func(c *gin.Context) {
		genreID, err := strconv.Atoi(c.Param("genreId"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid genre ID")
			return
		}
		limit, err := query.ParseLimit(c.Request.URL.Query(), 5)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		items, err := store.NewestByGenre(genreID, limit)
		if err != nil {
			log.Error("listing newest content failed", "genre", genreID, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "data": items})
	})

	content.POST("/recommendations", func(c *gin.Context) {
		var req m.RecommendationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid recommendation request")
			return
		}
		limit, err := query.ParseLimit(c.Request.URL.Query(), recommend.DefaultLimit)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		catalog, err := store.AllContent()
		if err != nil {
			log.Error("loading catalog for recommendations failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		ranked := recommend.Rank(catalog, req.LikedGenres, req.ExcludeIDs, limit)
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(ranked), "data": ranked})
	})
}

func registerGenreRoutes(r *gin.RouterGroup, store db.DBService, log *logger.Logger) {
	genres := r.Group("/genres")

	genres.GET("", func(c *gin.Context) {
		list, err := store.ListGenres()
		if err != nil {
			log.Error("listing genres failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
	})

	genres.GET("/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid genre ID")
			return
		}
		genre, err := store.FindGenreByID(id)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Genre not found")
			return
		}
		if err != nil {
			log.Error("finding genre failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": genre})
	})

	genres.GET("/:id/content", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid genre ID")
			return
		}
		page, err := query.ParsePage(c.Request.URL.Query())
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		filter := query.Filter{GenreID: &id}
		sorts := query.ResolveSort(c.Query("sort"))
		items, err := store.ListContent(filter, sorts, page.Offset(), page.Limit)
		if err != nil {
			log.Error("listing genre content failed", "genre", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		total, err := store.CountContent(filter)
		if err != nil {
			log.Error("counting genre content failed", "genre", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"count":      len(items),
			"total":      total,
			"pagination": query.BuildPagination(page, total),
			"data":       items,
		})
	})

	genres.POST("", authMiddleware(), func(c *gin.Context) {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
			fail(c, http.StatusBadRequest, "Genre name is required")
			return
		}
		genre, err := store.InsertGenre(strings.TrimSpace(body.Name))
		if errors.Is(err, db.ErrDuplicate) {
			fail(c, http.StatusConflict, "Genre already exists")
			return
		}
		if err != nil {
			log.Error("creating genre failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": genre})
	})

	genres.PUT("/:id", authMiddleware(), func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid genre ID")
			return
		}
		var body struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
			fail(c, http.StatusBadRequest, "Genre name is required")
			return
		}
		genre, err := store.UpdateGenre(id, strings.TrimSpace(body.Name))
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Genre not found")
			return
		}
		if errors.Is(err, db.ErrDuplicate) {
			fail(c, http.StatusConflict, "Genre already exists")
			return
		}
		if err != nil {
			log.Error("updating genre failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": genre})
	})

	genres.DELETE("/:id", authMiddleware(), func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid genre ID")
			return
		}
		err = store.DeleteGenre(id)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Genre not found")
			return
		}
		if err != nil {
			log.Error("deleting genre failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	})
}

func registerAuthRoutes(r *gin.RouterGroup, store db.DBService, log *logger.Logger) {
	auth := r.Group("/auth")

	auth.POST("/register", func(c *gin.Context) {
		var user m.User
		if err := c.ShouldBindJSON(&user); err != nil {
			fail(c, http.StatusBadRequest, "Invalid registration data")
			return
		}
		if user.Username == "" || user.Email == "" || user.Password == "" {
			fail(c, http.StatusBadRequest, "username, email and password are required")
			return
		}

		created, err := store.InsertNewUser(user)
		if errors.Is(err, db.ErrDuplicate) {
			fail(c, http.StatusConflict, "Username or email already taken")
			return
		}
		if err != nil {
			log.Error("registering user failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
	})

	auth.POST("/login", func(c *gin.Context) {
		var loginData struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&loginData); err != nil {
			fail(c, http.StatusBadRequest, "Invalid login data")
			return
		}

		user, err := store.ValidateUser(loginData.Username, loginData.Password)
		if errors.Is(err, db.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err != nil {
			log.Error("login failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		token, err := generateToken(user.ID)
		if err != nil {
			log.Error("token generation failed", "error", err)
			fail(c, http.StatusInternalServerError, "Could not generate token")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
	})
}

func registerProfileRoutes(r *gin.RouterGroup, store db.DBService, log *logger.Logger) {
	profiles := r.Group("/profiles")

	profiles.GET("", func(c *gin.Context) {
		userID := c.GetInt("user_id")
		list, err := store.ListProfiles(userID)
		if err != nil {
			log.Error("listing profiles failed", "user", userID, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
	})

	profiles.POST("", func(c *gin.Context) {
		var body struct {
			Name      string `json:"name"`
			AvatarURL string `json:"avatarUrl"`
			IsKid     bool   `json:"isKid"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
			fail(c, http.StatusBadRequest, "Profile name is required")
			return
		}

		profile, err := store.InsertProfile(m.Profile{
			UserID:    c.GetInt("user_id"),
			Name:      strings.TrimSpace(body.Name),
			AvatarURL: body.AvatarURL,
			IsKid:     body.IsKid,
		})
		if errors.Is(err, db.ErrDuplicate) {
			fail(c, http.StatusConflict, "A profile with this name already exists")
			return
		}
		if err != nil {
			log.Error("creating profile failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": profile})
	})

	profiles.PATCH("/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid profile ID")
			return
		}
		var body struct {
			Name      string `json:"name"`
			AvatarURL string `json:"avatarUrl"`
			IsKid     *bool  `json:"isKid"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, "Invalid update data")
			return
		}

		err = store.UpdateProfile(id, c.GetInt("user_id"), body.Name, body.AvatarURL, body.IsKid)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Profile not found")
			return
		}
		if errors.Is(err, db.ErrDuplicate) {
			fail(c, http.StatusConflict, "A profile with this name already exists")
			return
		}
		if err != nil {
			log.Error("updating profile failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated successfully"})
	})

	profiles.DELETE("/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid profile ID")
			return
		}
		err = store.DeleteProfile(id, c.GetInt("user_id"))
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Profile not found")
			return
		}
		if err != nil {
			log.Error("deleting profile failed", "id", id, "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	})
}

func registerProgressRoutes(r *gin.RouterGroup, store db.DBService, log *logger.Logger) {
	r.PUT("/progress", func(c *gin.Context) {
		var body struct {
			ProfileID       int  `json:"profileId"`
			ContentID       int  `json:"contentId"`
			PositionSeconds int  `json:"positionSeconds"`
			DurationSeconds int  `json:"durationSeconds"`
			IsCompleted     bool `json:"isCompleted"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, "Invalid progress data")
			return
		}
		if body.ProfileID == 0 || body.ContentID == 0 {
			fail(c, http.StatusBadRequest, "profileId and contentId are required")
			return
		}

		progress, err := store.UpsertProgress(c.GetInt("user_id"), m.ViewingProgress{
			ProfileID:       body.ProfileID,
			ContentID:       body.ContentID,
			PositionSeconds: body.PositionSeconds,
			DurationSeconds: body.DurationSeconds,
			IsCompleted:     body.IsCompleted,
		})
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Profile not found")
			return
		}
		if err != nil {
			log.Error("saving progress failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": progress})
	})

	r.GET("/progress", func(c *gin.Context) {
		profileID, err := strconv.Atoi(c.Query("profileId"))
		if err != nil {
			fail(c, http.StatusBadRequest, "profileId and contentId are required")
			return
		}
		contentID, err := strconv.Atoi(c.Query("contentId"))
		if err != nil {
			fail(c, http.StatusBadRequest, "profileId and contentId are required")
			return
		}

		progress, err := store.GetProgress(c.GetInt("user_id"), profileID, contentID)
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "Profile not found")
			return
		}
		if err != nil {
			log.Error("loading progress failed", "error", err)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": progress})
	})
}

func generateToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			fail(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			fail(c, http.StatusUnauthorized, "Invalid token claims")
			c.Abort()
			return
		}
		userID, ok := claims["user_id"].(float64)
		if !ok {
			fail(c, http.StatusUnauthorized, "Invalid token claims")
			c.Abort()
			return
		}
		c.Set("user_id", int(userID))
		c.Next()
	}
}
