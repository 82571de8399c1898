package handlers

import (
	"log"
	"net/http"
	"time"

	"logistiko-backend/auth"
	"logistiko-backend/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles login and the current-user endpoint
type AuthHandler struct {
	users         *repository.UserRepository
	secretKey     []byte
	tokenValidity time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *repository.UserRepository, secretKey []byte, tokenValidity time.Duration) *AuthHandler {
	return &AuthHandler{
		users:         users,
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
	}
}

// LoginRequest represents the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || user == nil || !user.Active {
		fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	token, err := auth.GenerateToken(user, h.secretKey, h.tokenValidity)
	if err != nil {
		log.Printf("Token generation failed for %s: %v", user.Email, err)
		fail(c, http.StatusInternalServerError, "TOKEN_FAILED", "Could not issue token")
		return
	}

	ok(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, found := auth.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User no longer exists")
		return
	}

	ok(c, http.StatusOK, user)
}
