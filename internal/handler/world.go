package handler

import (
	"context"
	"net/http"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
)

// WorldItems is the world registry surface the admin API needs
type WorldItems interface {
	ListAll() []domain.WorldItem
	Spawn(ctx context.Context, itemType string, pos domain.Vec3, quantity int) (domain.WorldItem, error)
	Remove(ctx context.Context, instanceID string) bool
}

// SpawnWorldItemRequest places a new item on the ground
type SpawnWorldItemRequest struct {
	ItemType string      `json:"itemType" validate:"required,max=64,excludesall=\x00\n\r\t"`
	Position domain.Vec3 `json:"position"`
	Quantity int         `json:"quantity" validate:"omitempty,min=1,max=1000000"`
}

// WorldItemsResponse lists items on the ground
type WorldItemsResponse struct {
	Items []domain.WorldItem `json:"items"`
	Count int                `json:"count"`
}

// WorldHandler serves the admin world-item routes
type WorldHandler struct {
	world WorldItems
}

// NewWorldHandler creates a new world handler
func NewWorldHandler(world WorldItems) *WorldHandler {
	return &WorldHandler{world: world}
}

// HandleList lists every world item
// @Summary List world items
// @Tags admin
// @Produce json
// @Success 200 {object} WorldItemsResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/world-items [get]
func (h *WorldHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items := h.world.ListAll()
	respondJSON(w, http.StatusOK, WorldItemsResponse{Items: items, Count: len(items)})
}

// HandleSpawn spawns a world item
// @Summary Spawn a world item
// @Tags admin
// @Accept json
// @Produce json
// @Param request body SpawnWorldItemRequest true "Item to spawn"
// @Success 201 {object} domain.WorldItem
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/world-items [post]
func (h *WorldHandler) HandleSpawn(w http.ResponseWriter, r *http.Request) {
	var req SpawnWorldItemRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Spawn world item"); err != nil {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.world.Spawn(r.Context(), req.ItemType, req.Position, req.Quantity)
	if err != nil {
		respondServiceError(w, r, ErrMsgSpawnFailed, err)
		return
	}

	logger.FromContext(r.Context()).Info(LogMsgWorldItemSpawned,
		"instance_id", item.InstanceID,
		"item_type", item.ItemType,
		"quantity", item.Quantity)
	respondJSON(w, http.StatusCreated, item)
}

// HandleRemove deletes a world item
// @Summary Remove a world item
// @Tags admin
// @Produce json
// @Param id path string true "Instance id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/world-items/{id} [delete]
func (h *WorldHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := GetPathParam(r, w, "id")
	if !ok {
		return
	}

	if !h.world.Remove(r.Context(), id) {
		respondError(w, http.StatusNotFound, ErrMsgWorldItemNotFound)
		return
	}

	logger.FromContext(r.Context()).Info(LogMsgWorldItemRemoved, "instance_id", id)
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "removed " + id})
}
