package webapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainauth "mealvision-server/internal/domain/auth"
	"mealvision-server/internal/platform/config"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
	"mealvision-server/internal/platform/system"
	httptransport "mealvision-server/internal/transport/http"
)

// Service exposes account management and the server status endpoint.
type Service struct {
	logger *logging.Logger
	config *config.Config
	auth   *domainauth.Service
}

func NewService(cfg *config.Config, logger *logging.Logger, auth *domainauth.Service) (*Service, error) {
	if cfg == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "webapi.new", "config is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "webapi.new", "logger is required")
	}
	if auth == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "webapi.new", "auth service is required")
	}
	return &Service{logger: logger, config: cfg, auth: auth}, nil
}

// Register wires the account routes. Register, login and the status probe
// stay public; logout and the current-user lookup require a live session.
func (s *Service) Register(ctx context.Context, api, secured *gin.RouterGroup) error {
	api.POST("/user/register", s.handleRegister)
	api.POST("/user/login", s.handleLogin)
	api.GET("/system/status", s.handleSystemStatus)

	secured.POST("/user/logout", s.handleLogout)
	secured.GET("/user/me", s.handleCurrentUser)

	s.logger.InfoTag("HTTP", "account routes registered")
	return nil
}

// RegisterRequest carries the account creation parameters.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
}

// LoginRequest carries the login credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Service) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid registration payload", nil)
		return
	}

	account, err := s.auth.Register(c.Request.Context(), req.Username, req.Password, req.Nickname)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, account, "account created")
}

func (s *Service) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid login payload", nil)
		return
	}

	account, token, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"token": token,
		"user":  account,
	}, "login successful")
}

func (s *Service) handleLogout(c *gin.Context) {
	token := c.GetString(httptransport.ContextToken)
	if err := s.auth.Logout(c.Request.Context(), token); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil, "logout successful")
}

func (s *Service) handleCurrentUser(c *gin.Context) {
	token := c.GetString(httptransport.ContextToken)
	account, err := s.auth.CurrentUser(c.Request.Context(), token)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, account, "")
}

func (s *Service) handleSystemStatus(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, system.Snapshot(), "")
}
