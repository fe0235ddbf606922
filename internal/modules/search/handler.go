package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsearch/internal/middleware"
	"docsearch/internal/modules/files"
	"docsearch/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Prompt godoc
// @Summary Query uploaded files
// @Description Answers a natural-language prompt using the content of all files the user has uploaded.
// @Tags Search
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PromptRequest true "The prompt to answer"
// @Success 200 {object} PromptResponse
// @Failure 400,401,404,500 {object} map[string]interface{}
// @Router /prompt [post]
func (h *Handler) Prompt(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		return
	}

	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "prompt is required")
		return
	}

	text, err := h.service.Ask(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFiles):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		case errors.Is(err, files.ErrSearchUpstream):
			response.Error(c, http.StatusInternalServerError, response.CodeUpstream, err.Error())
		default:
			c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "error processing prompt")
		}
		return
	}

	c.JSON(http.StatusOK, PromptResponse{Response: text})
}
