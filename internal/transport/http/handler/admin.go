package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"memoryai/internal/app"
	"memoryai/internal/transport/http/response"
)

type AdminHandler struct {
	adminService *app.AdminService
}

func NewAdminHandler(adminService *app.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Collections reports index, graph and catalog statistics.
func (h *AdminHandler) Collections(c *gin.Context) {
	stats, err := h.adminService.Collections(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "collection stats failed: "+err.Error())
		return
	}
	response.OK(c, stats)
}
