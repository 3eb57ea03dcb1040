package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

// CatalogHandler records and serves catalog reference data. Catalog entries
// are shared by all owners.
type CatalogHandler struct {
	store *store.GormStore
}

func NewCatalogHandler(st *store.GormStore) *CatalogHandler {
	return &CatalogHandler{store: st}
}

func (h *CatalogHandler) UpsertEntry(c *gin.Context) {
	var req models.UpsertCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !nonNegative(req.RetailPrice, req.EstimatedValue) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prices must not be negative"})
		return
	}

	ctx := c.Request.Context()
	entry := req.Entry()
	if err := h.store.UpsertCatalogEntry(ctx, &entry); err != nil {
		respondError(c, err)
		return
	}

	saved, err := h.store.GetCatalogEntry(ctx, entry.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *CatalogHandler) GetEntry(c *gin.Context) {
	entry, err := h.store.GetCatalogEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
