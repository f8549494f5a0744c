package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memoryai/internal/app"
	"memoryai/internal/transport/http/response"
)

type QueryHandler struct {
	queryService     *app.QueryService
	navigatorService *app.NavigatorService
}

// Question is deliberately not required: a blank question gets the canned
// "provide a question" answer rather than a validation error.
type QueryRequest struct {
	Question  string `json:"question"`
	NResults  int    `json:"n_results"`
	DocFilter string `json:"doc_filter"`
}

type NavigateRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	NResults  int    `json:"n_results"`
	DocFilter string `json:"doc_filter"`
}

func NewQueryHandler(queryService *app.QueryService, navigatorService *app.NavigatorService) *QueryHandler {
	return &QueryHandler{queryService: queryService, navigatorService: navigatorService}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.queryService.Query(c.Request.Context(), req.Question, req.NResults, req.DocFilter, nil)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "query failed: "+err.Error())
		return
	}
	response.OK(c, result)
}

// Navigate threads a question through a session. Pass session_id to continue
// a thread, omit it to start a new one.
func (h *QueryHandler) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.navigatorService.Navigate(c.Request.Context(), req.Question, req.SessionID, req.NResults, req.DocFilter)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "navigation failed: "+err.Error())
		}
		return
	}
	response.OK(c, result)
}
