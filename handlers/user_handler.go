package handlers

import (
	"net/http"

	"logistiko-backend/models"
	"logistiko-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles staff account management. All routes are admin-only.
type UserHandler struct {
	users *repository.UserRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest represents the request body for creating a staff account
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	role := models.UserRole(req.Role)
	switch role {
	case models.RoleAdmin, models.RoleAccountant, models.RoleViewer:
	case "":
		role = models.RoleAccountant
	default:
		fail(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be admin, accountant or viewer")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, http.StatusInternalServerError, "HASH_FAILED", "Could not hash password")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
		Active:       true,
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create user")
		return
	}

	ok(c, http.StatusCreated, user)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list users")
		return
	}
	ok(c, http.StatusOK, users)
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	ok(c, http.StatusOK, user)
}

// UpdateUserRequest represents the request body for updating a staff account
type UpdateUserRequest struct {
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

// Update handles PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		role := models.UserRole(req.Role)
		switch role {
		case models.RoleAdmin, models.RoleAccountant, models.RoleViewer:
			user.Role = role
		default:
			fail(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be admin, accountant or viewer")
			return
		}
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			fail(c, http.StatusBadRequest, "INVALID_PASSWORD", "Password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			fail(c, http.StatusInternalServerError, "HASH_FAILED", "Could not hash password")
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := h.users.Update(c.Request.Context(), user); err != nil {
		fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update user")
		return
	}
	ok(c, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Could not delete user")
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}
