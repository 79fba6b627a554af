package handler

import (
	"net/http"

	"github.com/osse101/realmkeeper/internal/domain"
)

// PlayerLister reports the connected players
type PlayerLister interface {
	Players() []domain.PlayerSummary
	Count() int
}

// PlayersResponse lists connected players
type PlayersResponse struct {
	Players []domain.PlayerSummary `json:"players"`
	Count   int                    `json:"count"`
}

// HandleListPlayers lists connected players
// @Summary List connected players
// @Tags admin
// @Produce json
// @Success 200 {object} PlayersResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/players [get]
func HandleListPlayers(players PlayerLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := players.Players()
		respondJSON(w, http.StatusOK, PlayersResponse{Players: list, Count: len(list)})
	}
}
