package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/services"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

// Maximum wears recorded by a single request
const maxWearIncrement = 365

type ItemHandler struct {
	store     *store.GormStore
	portfolio *services.PortfolioService
}

func NewItemHandler(st *store.GormStore, portfolio *services.PortfolioService) *ItemHandler {
	return &ItemHandler{store: st, portfolio: portfolio}
}

// ListItems returns the owner's items narrowed and ordered by the query criteria.
func (h *ItemHandler) ListItems(c *gin.Context) {
	criteria, err := ParseCriteria(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := h.portfolio.Items(c.Request.Context(), ownerID(c), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.store.GetItem(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item.View())
}

func (h *ItemHandler) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condition := models.ConditionDeadstock
	if req.Condition != "" {
		parsed, ok := models.ParseCondition(req.Condition)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown condition"})
			return
		}
		condition = parsed
	}
	if req.WearCount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wear_count must not be negative"})
		return
	}
	if !nonNegative(req.PurchasePrice, req.CostBasis, req.AskingPrice) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prices must not be negative"})
		return
	}

	ctx := c.Request.Context()
	owner := ownerID(c)
	item := models.Item{
		OwnerID:       owner,
		CatalogID:     req.CatalogID,
		PurchasePrice: req.PurchasePrice,
		CostBasis:     req.CostBasis,
		PurchaseDate:  req.PurchaseDate,
		Condition:     condition,
		Size:          req.Size,
		WearCount:     req.WearCount,
		Location:      req.Location,
		Notes:         req.Notes,
		ForSale:       req.ForSale,
		AskingPrice:   req.AskingPrice,
	}
	if err := h.store.CreateItem(ctx, &item); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "catalog entry not found, add it to the catalog first"})
			return
		}
		respondError(c, err)
		return
	}

	created, err := h.store.GetItem(ctx, owner, item.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created.View())
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !nonNegative(req.CostBasis, req.AskingPrice) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prices must not be negative"})
		return
	}

	ctx := c.Request.Context()
	owner := ownerID(c)
	item, err := h.store.GetItem(ctx, owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Condition != nil {
		parsed, ok := models.ParseCondition(*req.Condition)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown condition"})
			return
		}
		item.Condition = parsed
	}
	if req.WearCount != nil {
		if *req.WearCount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "wear_count must not be negative"})
			return
		}
		item.WearCount = *req.WearCount
	}
	if req.CostBasis != nil {
		item.CostBasis = req.CostBasis
	}
	if req.Size != nil {
		item.Size = *req.Size
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	if req.ForSale != nil {
		item.ForSale = *req.ForSale
	}
	if req.AskingPrice != nil {
		item.AskingPrice = req.AskingPrice
	}

	if err := h.store.SaveItem(ctx, item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item.View())
}

type wearRequest struct {
	Count int `json:"count"`
}

// RecordWear increments an item's wear count, by one unless a count is given.
func (h *ItemHandler) RecordWear(c *gin.Context) {
	req := wearRequest{Count: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Count <= 0 || req.Count > maxWearIncrement {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 1 and 365"})
		return
	}

	item, err := h.store.IncrementWear(c.Request.Context(), ownerID(c), c.Param("id"), req.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item.View())
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.store.DeleteItem(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *ItemHandler) AttachTag(c *gin.Context) {
	if err := h.store.AttachTag(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("tagId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tagged"})
}

func (h *ItemHandler) DetachTag(c *gin.Context) {
	if err := h.store.DetachTag(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("tagId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "untagged"})
}

// nonNegative reports whether every amount present is zero or more.
func nonNegative(amounts ...*float64) bool {
	for _, v := range amounts {
		if v != nil && *v < 0 {
			return false
		}
	}
	return true
}
