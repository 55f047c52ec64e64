package filestore

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abylay/filestore/internal/blob"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/file/:name", handler.uploadFile)
	group.GET("/file/:name", handler.downloadFile)
	group.DELETE("/file/:name", handler.deleteFile)
	group.GET("/files", handler.listFiles)
}

type httpHandler struct {
	service *Service
}

// fileDetails is the default listing projection.
type fileDetails struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	Destination string `json:"destination"`
	UpdatedAt   string `json:"updated_at"`
}

// fileDetailsVerbose additionally exposes version and storage info.
type fileDetailsVerbose struct {
	fileDetails
	FilePath    string   `json:"file_path"`
	Version     int      `json:"version"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	DeletedAt   string   `json:"deleted_at,omitempty"`
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	name := c.Param("name")
	destination := strings.Trim(c.PostForm("destination"), "/")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file payload"})
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file payload"})
		return
	}

	rec, err := h.service.Upload(c.Request.Context(), UploadInput{
		Name:        name,
		Destination: destination,
		Payload:     payload,
		Tags:        ParseTags(c.PostForm("tags")),
		Description: c.PostForm("description"),
	})
	if err != nil {
		respondError(c, err, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, projectVerbose(rec))
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	name := c.Param("name")
	destination := strings.Trim(c.Query("destination"), "/")

	rec, payload, err := h.service.Download(c.Request.Context(), name, destination)
	if err != nil {
		respondError(c, err, "failed to download file")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	c.Data(http.StatusOK, "application/octet-stream", payload)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	name := c.Param("name")
	destination := strings.Trim(c.Query("destination"), "/")
	permanent := c.Query("permanent") == "true"

	if err := h.service.Delete(c.Request.Context(), name, destination, permanent); err != nil {
		respondError(c, err, "failed to delete file")
		return
	}

	if permanent {
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("File %s deleted permanently.", name)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("File %s deleted.", name)})
}

func (h *httpHandler) listFiles(c *gin.Context) {
	filter := Filter{
		Destination:    strings.Trim(c.Query("destination"), "/"),
		Tag:            c.Query("tag"),
		IncludeDeleted: c.Query("include_deleted") == "true",
	}

	var key SortKey
	switch {
	case c.Query("order_by_name") == "true":
		key = SortByName
	case c.Query("order_by_size") == "true":
		key = SortBySize
	case c.Query("order_by_updated_at") == "true":
		key = SortByUpdatedAt
	}

	records, err := h.service.List(c.Request.Context(), filter, key)
	if err != nil {
		respondError(c, err, "failed to list files")
		return
	}

	if c.Query("verbose") == "true" {
		response := make([]fileDetailsVerbose, 0, len(records))
		for _, rec := range records {
			response = append(response, projectVerbose(rec))
		}
		c.JSON(http.StatusOK, response)
		return
	}

	response := make([]fileDetails, 0, len(records))
	for _, rec := range records {
		response = append(response, project(rec))
	}
	c.JSON(http.StatusOK, response)
}

func project(rec FileRecord) fileDetails {
	return fileDetails{
		FileName:    rec.Name,
		FileSize:    rec.SizeBytes,
		Destination: rec.Destination,
		UpdatedAt:   rec.UpdatedAt.Format(time.RFC3339),
	}
}

func projectVerbose(rec FileRecord) fileDetailsVerbose {
	details := fileDetailsVerbose{
		fileDetails: project(rec),
		FilePath:    rec.StorageKey,
		Version:     rec.Version,
		Tags:        rec.Tags,
		Description: rec.Description,
	}
	if rec.DeletedAt != nil {
		details.DeletedAt = rec.DeletedAt.Format(time.RFC3339)
	}
	return details
}

// respondError maps the service taxonomy onto HTTP statuses. Metadata
// inconsistency gets its own shape so callers can tell "needs
// reconciliation" apart from a clean failure.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent modification, retry"})
	case errors.Is(err, ErrMetadataInconsistency):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "blob and metadata state diverged; reconciliation required",
			"state": "inconsistent",
		})
	case blob.IsKind(err, blob.NotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
	case blob.IsKind(err, blob.QuotaExceeded):
		c.JSON(http.StatusInsufficientStorage, gin.H{"error": "storage quota exceeded"})
	case blob.IsKind(err, blob.InvalidKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid storage key"})
	case blob.IsKind(err, blob.Unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
