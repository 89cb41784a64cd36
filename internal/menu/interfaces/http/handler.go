// Package http exposes the read side of the menu cache to the presentation layer.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wyfcoding/littlelemon/internal/menu/application"
	"github.com/wyfcoding/littlelemon/internal/menu/domain"
)

type MenuHandler struct {
	query    *application.MenuQueryService
	upgrader websocket.Upgrader
	// pingInterval keeps idle live connections open through proxies
	pingInterval time.Duration
}

func NewMenuHandler(query *application.MenuQueryService) *MenuHandler {
	return &MenuHandler{
		query: query,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// CORS middleware guards the origin of plain requests; live views are read-only
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: 30 * time.Second,
	}
}

func (h *MenuHandler) RegisterRoutes(r *gin.RouterGroup) {
	v1 := r.Group("/v1/menu")
	{
		v1.GET("", h.ListEntries)
		v1.GET("/items/:id", h.GetEntry)
		v1.GET("/categories", h.ListCategories)
		v1.GET("/sync", h.GetSyncState)
		v1.GET("/live", h.Live)
	}
}

func filterFrom(c *gin.Context) domain.Filter {
	return domain.Filter{Category: c.Query("category"), Search: c.Query("q")}
}

func (h *MenuHandler) ListEntries(c *gin.Context) {
	entries, err := h.query.List(c.Request.Context(), filterFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (h *MenuHandler) GetEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	entry, err := h.query.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *MenuHandler) ListCategories(c *gin.Context) {
	categories, err := h.query.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *MenuHandler) GetSyncState(c *gin.Context) {
	state, err := h.query.SyncState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}
