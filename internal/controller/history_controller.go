package controller

import (
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/service"
	"toefl_sim_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HistoryController struct {
	Service *service.HistoryService
}

func NewHistoryController(svc *service.HistoryService) *HistoryController {
	return &HistoryController{Service: svc}
}

// @Summary List simulation attempts
// @Description Members see their own attempts. Admins may pass userId to see anyone's.
// @Tags TOEFL history
// @Produce json
// @Security ApiKeyAuth
// @Param userId query string false "admin only"
// @Param mode query string false "filter by mode"
// @Param page query int false "page" default(1)
// @Param limit query int false "page size, max 100" default(50)
// @Success 200 {object} util.Response
// @Router /toefl/simulation/history [get]
func (c *HistoryController) ListHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	filter := model.HistoryFilter{UserID: user.UserID}
	if user.Role.IsAdmin() {
		filter.UserID = ctx.Query("userId")
	}
	if raw := ctx.Query("mode"); raw != "" {
		mode, ok := parseMode(ctx, raw)
		if !ok {
			return
		}
		filter.Mode = mode
	}

	page, limit := util.ClampPage(ctx.Query("page"), ctx.Query("limit"), util.DefaultHistoryLimit, util.MaxHistoryLimit)

	result, err := c.Service.List(ctx.Request.Context(), filter, page, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary Review one attempt
// @Tags TOEFL history
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "history id"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /toefl/simulation/history/{id} [get]
func (c *HistoryController) GetReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	review, err := c.Service.GetReview(ctx.Request.Context(), ctx.Param("id"), service.Viewer{
		UserID: user.UserID,
		Admin:  user.Role.IsAdmin(),
	})
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, review)
}
