package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"logistiko-backend/models"
	"logistiko-backend/reports"
	"logistiko-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves Excel exports
type ExportHandler struct {
	clients     *repository.ClientRepository
	obligations *repository.ObligationRepository
	users       *repository.UserRepository
}

// NewExportHandler creates a new export handler
func NewExportHandler(clients *repository.ClientRepository, obligations *repository.ObligationRepository, users *repository.UserRepository) *ExportHandler {
	return &ExportHandler{
		clients:     clients,
		obligations: obligations,
		users:       users,
	}
}

// Clients handles GET /api/v1/exports/clients.xlsx
func (h *ExportHandler) Clients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context(), false, 10000, 0)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not load clients")
		return
	}

	workbook, err := reports.ClientsWorkbook(clients)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not build workbook")
		return
	}
	defer workbook.Close()

	c.Header("Content-Disposition", `attachment; filename="clients.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	workbook.Write(c.Writer)
}

// Obligations handles GET /api/v1/exports/obligations.xlsx?year=&month=
func (h *ExportHandler) Obligations(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_YEAR", "A year is required")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		fail(c, http.StatusBadRequest, "INVALID_MONTH", "A month between 1 and 12 is required")
		return
	}

	ctx := c.Request.Context()
	obligations, err := h.obligations.List(ctx, repository.ObligationFilter{Year: &year, Month: &month}, 10000, 0)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not load obligations")
		return
	}

	types, err := h.obligations.ListTypes(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not load obligation types")
		return
	}
	typeNames := make(map[uuid.UUID]string, len(types))
	for _, t := range types {
		typeNames[t.ID] = t.Name
	}

	users, err := h.users.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not load users")
		return
	}
	userNames := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}

	// Clients are loaded once and joined in memory; the export is bounded
	// by the office's client count
	clientsByID := make(map[uuid.UUID]*models.Client)
	clients, err := h.clients.List(ctx, false, 10000, 0)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not load clients")
		return
	}
	for _, client := range clients {
		clientsByID[client.ID] = client
	}

	rows := make([]reports.ObligationRow, 0, len(obligations))
	for _, o := range obligations {
		row := reports.ObligationRow{
			TypeName:    typeNames[o.ObligationTypeID],
			Deadline:    o.Deadline,
			Status:      o.Status,
			CompletedAt: o.CompletedAt,
		}
		if client, found := clientsByID[o.ClientID]; found {
			row.ClientName = client.Name
			row.AFM = client.AFM
		}
		if o.CompletedBy != nil {
			row.CompletedBy = userNames[*o.CompletedBy]
		}
		rows = append(rows, row)
	}

	workbook, err := reports.ObligationsWorkbook(year, month, rows)
	if err != nil {
		fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Could not build workbook")
		return
	}
	defer workbook.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="obligations_%04d_%02d.xlsx"`, year, month))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	workbook.Write(c.Writer)
}
