package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/config"
	"github.com/societyvoice/backend/internal/database"
	"github.com/societyvoice/backend/internal/handlers"
	"github.com/societyvoice/backend/internal/middleware"
	"github.com/societyvoice/backend/internal/models"
	"github.com/societyvoice/backend/internal/storage"
)

// formFieldAllowance is the room left for text fields and multipart framing
// on top of the image size limit.
const formFieldAllowance = 1 << 20

type Server struct {
	cfg     config.Config
	db      database.Service
	tokens  *auth.TokenManager
	handler *handlers.Handler
}

// New wires the handlers to an already connected database.
func New(cfg config.Config, db database.Service) (*Server, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	uploads, err := storage.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	return &Server{
		cfg:     cfg,
		db:      db,
		tokens:  tokens,
		handler: handlers.NewHandler(db.GetDB(), uploads, tokens),
	}, nil
}

// HTTPServer returns the configured http.Server for the routes.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", s.cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	// Credentials cannot be combined with a wildcard origin.
	allowAll := len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*"
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.CORSOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})

	h := s.handler
	authenticated := middleware.AuthMiddleware(s.tokens, middleware.GormUserLoader(s.db.GetDB()))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group("/api")
	{
		// Public routes
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)
		api.GET("/uploads/:filename", h.Complaint.ServeUpload)

		protected := api.Group("")
		protected.Use(authenticated)
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.POST("/change_password", h.Auth.ChangePassword)

			protected.POST("/submit_complaint", middleware.LimitBody(s.cfg.MaxUploadBytes+formFieldAllowance), h.Complaint.SubmitComplaint)
			protected.GET("/get_complaints", h.Complaint.GetComplaints)
			protected.POST("/update_complaint_status", h.Complaint.UpdateComplaintStatus)
			protected.POST("/like_complaint", h.Complaint.LikeComplaint)

			protected.GET("/get_polls", h.Poll.GetPolls)
			protected.POST("/vote_poll", h.Poll.VotePoll)

			protected.GET("/get_alerts", h.Alert.GetAlerts)
			protected.POST("/create_alert", middleware.RequireRoles(models.RoleAdmin, models.RoleWorker), h.Alert.CreateAlert)

			protected.POST("/request_house_change", middleware.RequireRoles(models.RoleResident), h.House.RequestHouseChange)
		}

		admin := protected.Group("")
		admin.Use(adminOnly)
		{
			admin.POST("/delete_complaint", h.Complaint.DeleteComplaint)

			admin.POST("/create_poll", h.Poll.CreatePoll)
			admin.POST("/close_poll", h.Poll.ClosePoll)
			admin.POST("/delete_poll", h.Poll.DeletePoll)

			admin.POST("/delete_alert", h.Alert.DeleteAlert)

			admin.GET("/get_house_change_requests", h.House.GetHouseRequests)
			admin.GET("/admin/get_house_requests", h.House.GetHouseRequests)
			admin.POST("/process_house_change_request", h.House.ProcessHouseRequest)
			admin.POST("/admin/process_house_request", h.House.ProcessHouseRequest)

			admin.GET("/get_registration_requests", h.Registration.GetRegistrationRequests)
			admin.GET("/admin/requests", h.Registration.GetRegistrationRequests)
			admin.POST("/process_registration_request", h.Registration.ProcessRegistrationRequest)
			admin.POST("/admin/approve_request", h.Registration.ApproveRequest)
			admin.POST("/admin/reject_request", h.Registration.RejectRequest)

			admin.GET("/get_users", h.User.GetUsers)
			admin.GET("/admin/get_users", h.User.GetUsers)
			admin.POST("/add_user", h.User.AddUser)
			admin.POST("/delete_user", h.User.DeleteUser)
			admin.POST("/change_user_role", h.User.ChangeUserRole)
			admin.POST("/admin/change_user_role", h.User.ChangeUserRole)
		}
	}

	return r
}
