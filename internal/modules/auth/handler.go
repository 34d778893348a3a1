package auth

import (
	"errors"
	"net/http"
	"path/filepath"

	"photojournal/internal/pkg/response"
	"photojournal/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// SessionCookie describes how the login cookie is issued. The same JWT
// is accepted from an Authorization header, so API clients can skip
// cookies entirely.
type SessionCookie struct {
	Name   string
	MaxAge int
	Secure bool
}

// Handler manages all HTTP interactions for registration and login.
type Handler struct {
	service   *Service
	cookie    SessionCookie
	staticDir string
}

func NewHandler(service *Service, cookie SessionCookie, staticDir string) *Handler {
	return &Handler{service: service, cookie: cookie, staticDir: staticDir}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.GET("/logout", h.Logout)
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.File(filepath.Join(h.staticDir, "login.html"))
}

func (h *Handler) RegisterPage(c *gin.Context) {
	c.File(filepath.Join(h.staticDir, "register.html"))
}

func (h *Handler) Register(c *gin.Context) {
	var req Credentials
	if err := c.ShouldBind(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required", validator.Validate(req))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Error(c, http.StatusConflict, "USERNAME_TAKEN", "Username already exists")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req Credentials
	if err := c.ShouldBind(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required", validator.Validate(req))
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Username or password is incorrect")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		return
	}

	// A fresh cookie fully replaces any previous session.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, h.cookie.MaxAge, "/", "", h.cookie.Secure, true)

	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
		"token": token,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.Message(c, http.StatusOK, "Logged out")
}
