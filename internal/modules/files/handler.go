package files

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docsearch/internal/middleware"
	"docsearch/internal/pkg/response"
	"docsearch/internal/pkg/tags"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload a text file
// @Description Upload a .txt file (max 100 MB). The file is pushed to the user's search store, tagged, and recorded with its storage contribution.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "The .txt file to upload"
// @Success 200 {object} UploadResponse
// @Failure 400,401,500 {object} map[string]interface{}
// @Router /upload [post]
func (h *Handler) Upload(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "no file provided")
		return
	}

	// Reject on the filename alone before buffering the part.
	if !strings.HasSuffix(fileHeader.Filename, AcceptedExtension) {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, ErrInvalidExtension.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "could not read file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "could not read file")
		return
	}

	result, err := h.service.Upload(c.Request.Context(), userID, fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidExtension),
			errors.Is(err, ErrEmptyFile),
			errors.Is(err, ErrFileTooLarge),
			errors.Is(err, ErrInvalidEncoding):
			response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
		case errors.Is(err, ErrSearchUpstream):
			response.Error(c, http.StatusInternalServerError, response.CodeUpstream, err.Error())
		default:
			c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "error processing file")
		}
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:        "File uploaded successfully",
		FileID:         result.File.ID,
		FileName:       result.File.FileName,
		ProjectName:    result.File.ProjectName,
		SizeKB:         result.File.FileSizeKB,
		Tags:           result.Tags,
		TotalStorageKB: result.TotalStorageKB,
	})
}

// List godoc
// @Summary List the user's files
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FilesListResponse
// @Failure 401 {object} map[string]interface{}
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		return
	}

	records, err := h.service.ListFiles(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "failed to list files")
		return
	}

	files := make([]FileInfo, 0, len(records))
	for _, f := range records {
		files = append(files, FileInfo{
			ID:          f.ID,
			FileName:    f.FileName,
			ProjectName: f.ProjectName,
			SizeKB:      f.FileSizeKB,
			UploadTime:  f.UploadTime.Format(time.RFC3339),
			Tags:        tags.FromJSON(f.Tags),
		})
	}
	c.JSON(http.StatusOK, FilesListResponse{Files: files})
}

// Storage godoc
// @Summary Get the user's storage usage
// @Tags Storage
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StorageInfo
// @Failure 401 {object} map[string]interface{}
// @Router /storage [get]
func (h *Handler) Storage(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		return
	}

	storage, err := h.service.StorageInfo(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "failed to load storage info")
		return
	}

	info := StorageInfo{UserID: userID}
	if storage != nil {
		info.TotalStorageKB = storage.TotalStorageKB
		if !storage.LastUpdated.IsZero() {
			ts := storage.LastUpdated.Format(time.RFC3339)
			info.LastUpdated = &ts
		}
	}
	c.JSON(http.StatusOK, info)
}
