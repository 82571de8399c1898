package handlers

import (
	"net/http"

	"logistiko-backend/auth"
	"logistiko-backend/models"
	"logistiko-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TicketHandler handles internal work-item tracking
type TicketHandler struct {
	tickets *repository.TicketRepository
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets *repository.TicketRepository) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// TicketRequest represents the request body for creating or updating a ticket
type TicketRequest struct {
	Subject    string  `json:"subject" binding:"required"`
	Body       string  `json:"body"`
	Status     string  `json:"status"`
	Priority   int     `json:"priority"`
	ClientID   *string `json:"client_id"`
	AssigneeID *string `json:"assignee_id"`
}

func (r *TicketRequest) apply(t *models.Ticket) (string, bool) {
	t.Subject = r.Subject
	t.Body = r.Body

	if r.Status != "" {
		status := models.TicketStatus(r.Status)
		switch status {
		case models.TicketOpen, models.TicketInProgress, models.TicketClosed:
			t.Status = status
		default:
			return "Status must be open, in_progress or closed", false
		}
	}

	if r.Priority != 0 {
		if r.Priority < 1 || r.Priority > 3 {
			return "Priority must be between 1 and 3", false
		}
		t.Priority = r.Priority
	}

	t.ClientID = nil
	if r.ClientID != nil && *r.ClientID != "" {
		clientID, err := uuid.Parse(*r.ClientID)
		if err != nil {
			return "Invalid client_id format", false
		}
		t.ClientID = &clientID
	}

	t.AssigneeID = nil
	if r.AssigneeID != nil && *r.AssigneeID != "" {
		assigneeID, err := uuid.Parse(*r.AssigneeID)
		if err != nil {
			return "Invalid assignee_id format", false
		}
		t.AssigneeID = &assigneeID
	}

	return "", true
}

// Create handles POST /api/v1/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	userID, found := auth.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	t := &models.Ticket{Status: models.TicketOpen, Priority: 1, CreatedBy: userID}
	if msg, valid := req.apply(t); !valid {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}

	if err := h.tickets.Create(c.Request.Context(), t); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create ticket")
		return
	}
	ok(c, http.StatusCreated, t)
}

// List handles GET /api/v1/tickets
func (h *TicketHandler) List(c *gin.Context) {
	var status *models.TicketStatus
	if v := c.Query("status"); v != "" {
		s := models.TicketStatus(v)
		switch s {
		case models.TicketOpen, models.TicketInProgress, models.TicketClosed:
			status = &s
		default:
			fail(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be open, in_progress or closed")
			return
		}
	}

	limit, offset := pagination(c)
	tickets, err := h.tickets.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list tickets")
		return
	}
	ok(c, http.StatusOK, tickets)
}

// Get handles GET /api/v1/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID format")
		return
	}

	t, err := h.tickets.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found")
		return
	}
	ok(c, http.StatusOK, t)
}

// Update handles PUT /api/v1/tickets/:id
func (h *TicketHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID format")
		return
	}

	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	t, err := h.tickets.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found")
		return
	}

	if msg, valid := req.apply(t); !valid {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}

	if err := h.tickets.Update(c.Request.Context(), t); err != nil {
		fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update ticket")
		return
	}
	ok(c, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/tickets/:id
func (h *TicketHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID format")
		return
	}

	if err := h.tickets.Delete(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Could not delete ticket")
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}
