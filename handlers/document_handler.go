package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"logistiko-backend/auth"
	"logistiko-backend/models"
	"logistiko-backend/repository"
	"logistiko-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles the document archive endpoints
type DocumentHandler struct {
	documents       *repository.DocumentRepository
	links           *repository.SharedLinkRepository
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *repository.DocumentRepository, links *repository.SharedLinkRepository, documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documents:       documents,
		links:           links,
		documentService: documentService,
	}
}

// Upload handles POST /api/v1/documents (multipart)
func (h *DocumentHandler) Upload(c *gin.Context) {
	clientID, err := uuid.Parse(c.PostForm("client_id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
		return
	}

	year, err := strconv.Atoi(c.PostForm("year"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_YEAR", "Invalid year")
		return
	}
	month, err := strconv.Atoi(c.PostForm("month"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_MONTH", "Invalid month")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "MISSING_FILE", "A file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_FILE", "Could not read uploaded file")
		return
	}
	defer file.Close()

	req := service.UploadRequest{
		ClientID: clientID,
		Category: c.PostForm("category"),
		Year:     year,
		Month:    month,
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Data:     file,
	}
	if userID, found := auth.UserID(c); found {
		req.UploadedBy = &userID
	}
	if v := c.PostForm("obligation_id"); v != "" {
		obligationID, err := uuid.Parse(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_OBLIGATION_ID", "Invalid obligation_id format")
			return
		}
		req.ObligationID = &obligationID
	}

	doc, err := h.documentService.Upload(c.Request.Context(), req)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, doc)
}

// Download handles GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, reader, err := h.documentService.Open(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}
	defer reader.Close()

	streamDocument(c, doc, reader)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	filter := repository.DocumentFilter{CurrentOnly: c.DefaultQuery("current", "true") == "true"}

	if v := c.Query("client_id"); v != "" {
		clientID, err := uuid.Parse(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
			return
		}
		filter.ClientID = &clientID
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_YEAR", "Invalid year")
			return
		}
		filter.Year = &year
	}
	if v := c.Query("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_MONTH", "Invalid month")
			return
		}
		filter.Month = &month
	}

	limit, offset := pagination(c)
	documents, err := h.documents.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list documents")
		return
	}
	ok(c, http.StatusOK, documents)
}

// Versions handles GET /api/v1/documents/:id/versions; every version of the
// lineage the document belongs to, newest first
func (h *DocumentHandler) Versions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}

	versions, err := h.documents.ListVersions(c.Request.Context(), doc.ClientID, doc.Category, doc.Year, doc.Month)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list versions")
		return
	}
	ok(c, http.StatusOK, versions)
}

// DeleteLineage handles DELETE /api/v1/documents/:id. Removes every version
// of the document's lineage, including stored files.
func (h *DocumentHandler) DeleteLineage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}

	if err := h.documentService.DeleteLineage(c.Request.Context(), doc.ClientID, doc.Category, doc.Year, doc.Month); err != nil {
		fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Could not delete document lineage")
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}

// --- tags ---

// TagRequest represents the request body for creating a tag
type TagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// CreateTag handles POST /api/v1/documents/tags
func (h *DocumentHandler) CreateTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	tag := &models.DocumentTag{Name: req.Name, Color: req.Color}
	if err := h.links.CreateTag(c.Request.Context(), tag); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create tag")
		return
	}
	ok(c, http.StatusCreated, tag)
}

// ListTags handles GET /api/v1/documents/tags
func (h *DocumentHandler) ListTags(c *gin.Context) {
	tags, err := h.links.ListTags(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list tags")
		return
	}
	ok(c, http.StatusOK, tags)
}

// AssignTag handles POST /api/v1/documents/:id/tags/:tagId
func (h *DocumentHandler) AssignTag(c *gin.Context) {
	documentID, tagID, valid := h.documentAndTagIDs(c)
	if !valid {
		return
	}
	if err := h.links.AssignTag(c.Request.Context(), documentID, tagID); err != nil {
		fail(c, http.StatusInternalServerError, "ASSIGN_FAILED", "Could not assign tag")
		return
	}
	ok(c, http.StatusOK, gin.H{"assigned": true})
}

// UnassignTag handles DELETE /api/v1/documents/:id/tags/:tagId
func (h *DocumentHandler) UnassignTag(c *gin.Context) {
	documentID, tagID, valid := h.documentAndTagIDs(c)
	if !valid {
		return
	}
	if err := h.links.UnassignTag(c.Request.Context(), documentID, tagID); err != nil {
		fail(c, http.StatusInternalServerError, "UNASSIGN_FAILED", "Could not unassign tag")
		return
	}
	ok(c, http.StatusOK, gin.H{"unassigned": true})
}

func (h *DocumentHandler) documentAndTagIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return uuid.Nil, uuid.Nil, false
	}
	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_TAG_ID", "Invalid tag ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return documentID, tagID, true
}

// --- collections ---

// CollectionRequest represents the request body for creating a collection
type CollectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCollection handles POST /api/v1/documents/collections
func (h *DocumentHandler) CreateCollection(c *gin.Context) {
	var req CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	userID, found := auth.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	col := &models.DocumentCollection{Name: req.Name, Description: req.Description, CreatedBy: userID}
	if err := h.links.CreateCollection(c.Request.Context(), col); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create collection")
		return
	}
	ok(c, http.StatusCreated, col)
}

// ListCollections handles GET /api/v1/documents/collections
func (h *DocumentHandler) ListCollections(c *gin.Context) {
	collections, err := h.links.ListCollections(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list collections")
		return
	}
	ok(c, http.StatusOK, collections)
}

// AddToCollection handles POST /api/v1/documents/collections/:id/items/:documentId
func (h *DocumentHandler) AddToCollection(c *gin.Context) {
	collectionID, documentID, valid := h.collectionAndDocumentIDs(c)
	if !valid {
		return
	}
	if err := h.links.AddToCollection(c.Request.Context(), collectionID, documentID); err != nil {
		fail(c, http.StatusInternalServerError, "ADD_FAILED", "Could not add document to collection")
		return
	}
	ok(c, http.StatusOK, gin.H{"added": true})
}

// RemoveFromCollection handles DELETE /api/v1/documents/collections/:id/items/:documentId
func (h *DocumentHandler) RemoveFromCollection(c *gin.Context) {
	collectionID, documentID, valid := h.collectionAndDocumentIDs(c)
	if !valid {
		return
	}
	if err := h.links.RemoveFromCollection(c.Request.Context(), collectionID, documentID); err != nil {
		fail(c, http.StatusInternalServerError, "REMOVE_FAILED", "Could not remove document from collection")
		return
	}
	ok(c, http.StatusOK, gin.H{"removed": true})
}

func (h *DocumentHandler) collectionAndDocumentIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid collection ID format")
		return uuid.Nil, uuid.Nil, false
	}
	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_DOCUMENT_ID", "Invalid document ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return collectionID, documentID, true
}

// --- shared links ---

// SharedLinkRequest represents the request body for creating a shared link
type SharedLinkRequest struct {
	ExpiresAt    *time.Time `json:"expires_at"`
	MaxDownloads *int       `json:"max_downloads"`
}

// CreateSharedLink handles POST /api/v1/documents/:id/share
func (h *DocumentHandler) CreateSharedLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	var req SharedLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	userID, found := auth.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	link, err := h.documentService.CreateSharedLink(c.Request.Context(), id, req.ExpiresAt, req.MaxDownloads, userID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, link)
}

// ListSharedLinks handles GET /api/v1/documents/:id/share
func (h *DocumentHandler) ListSharedLinks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	links, err := h.links.ListLinksByDocument(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list shared links")
		return
	}
	ok(c, http.StatusOK, links)
}

// RedeemSharedLink handles GET /shared/:token. This is the only document
// route without authentication.
func (h *DocumentHandler) RedeemSharedLink(c *gin.Context) {
	doc, reader, err := h.documentService.RedeemSharedLink(c.Request.Context(), c.Param("token"))
	switch {
	case errors.Is(err, service.ErrLinkExhausted):
		fail(c, http.StatusGone, "LINK_EXHAUSTED", "This link has no downloads left")
		return
	case errors.Is(err, service.ErrLinkExpired):
		fail(c, http.StatusGone, "LINK_EXPIRED", "This link has expired")
		return
	case err != nil:
		fail(c, http.StatusNotFound, "NOT_FOUND", "Link not found")
		return
	}
	defer reader.Close()

	streamDocument(c, doc, reader)
}

func streamDocument(c *gin.Context, doc *models.ClientDocument, reader io.Reader) {
	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Header("Content-Type", contentType)
	if doc.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}
