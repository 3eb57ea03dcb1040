package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/services"
	"github.com/codyseavey/sneaker-tracker/internal/smart"
)

type CollectionHandler struct {
	collections *services.CollectionService
}

func NewCollectionHandler(collections *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// CollectionItemsResponse lists a collection's current members
type CollectionItemsResponse struct {
	CollectionID string            `json:"collection_id"`
	State        smart.State       `json:"state"`
	Items        []models.ItemView `json:"items"`
}

// ListCollections returns every collection of the owner with its item count
// and total value. Summaries that could not be computed carry state "unavailable".
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	summaries, err := h.collections.List(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *CollectionHandler) GetCollection(c *gin.Context) {
	summary, err := h.collections.Summary(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	owner := ownerID(c)
	created, err := h.collections.Create(ctx, owner, req)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.collections.Summary(ctx, owner, created.ID)
	if err != nil {
		// The collection exists; report it without figures.
		c.JSON(http.StatusCreated, created)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

type ruleRequest struct {
	Rule json.RawMessage `json:"rule"`
}

// UpdateRule replaces the rule of a smart collection.
func (h *CollectionHandler) UpdateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	owner := ownerID(c)
	if _, err := h.collections.UpdateRule(ctx, owner, c.Param("id"), req.Rule); err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.collections.Summary(ctx, owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	if err := h.collections.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// GetCollectionItems resolves a collection's membership. Smart collections are
// evaluated against the owner's current items on every call.
func (h *CollectionHandler) GetCollectionItems(c *gin.Context) {
	col, membership, err := h.collections.Members(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CollectionItemsResponse{
		CollectionID: col.ID,
		State:        membership.State,
		Items:        membership.Items,
	})
}

func (h *CollectionHandler) AddCollectionItem(c *gin.Context) {
	var req models.AddCollectionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.collections.AddItem(c.Request.Context(), ownerID(c), c.Param("id"), req.ItemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "added"})
}

func (h *CollectionHandler) RemoveCollectionItem(c *gin.Context) {
	if err := h.collections.RemoveItem(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}
