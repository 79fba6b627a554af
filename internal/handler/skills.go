package handler

import (
	"net/http"

	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/skills"
)

// AwardXPRequest grants skill experience to a player
type AwardXPRequest struct {
	PlayerID string `json:"playerId" validate:"required,max=128,excludesall=\x00\n\r\t"`
	Skill    string `json:"skill" validate:"required,skill"`
	Amount   int64  `json:"amount" validate:"required,min=1,max=1000000"`
}

// HandleAwardXP awards skill XP and notifies the player
// @Summary Award skill XP
// @Tags admin
// @Accept json
// @Produce json
// @Param request body AwardXPRequest true "Award"
// @Success 200 {object} domain.XPAwardResult
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/xp [post]
func HandleAwardXP(svc skills.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AwardXPRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Award XP"); err != nil {
			return
		}

		result, err := svc.AwardXP(r.Context(), req.PlayerID, req.Skill, req.Amount)
		if err != nil {
			respondServiceError(w, r, ErrMsgAwardXPFailed, err)
			return
		}

		logger.FromContext(r.Context()).Info(LogMsgXPAwarded,
			"player_id", req.PlayerID,
			"skill", req.Skill,
			"amount", req.Amount,
			"level", result.Level)
		respondJSON(w, http.StatusOK, result)
	}
}
