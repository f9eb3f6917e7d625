package controller

import (
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/service"
	"toefl_sim_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	Service *service.ContentService
	Sampler *service.QuestionSampler
}

func NewContentController(svc *service.ContentService, sampler *service.QuestionSampler) *ContentController {
	return &ContentController{Service: svc, Sampler: sampler}
}

// @Summary Question bank statistics
// @Tags TOEFL content
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /toefl/stats [get]
func (c *ContentController) GetStats(ctx *gin.Context) {
	stats, err := c.Service.Stats(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary List prompts with question counts
// @Tags TOEFL content
// @Produce json
// @Security ApiKeyAuth
// @Param section query string false "reading | listening" default(reading)
// @Success 200 {object} util.Response
// @Router /toefl/prompts [get]
func (c *ContentController) ListPrompts(ctx *gin.Context) {
	section, ok := model.ParseSection(ctx.DefaultQuery("section", string(model.SectionReading)))
	if !ok {
		util.BadRequest(ctx, "section must be reading or listening")
		return
	}

	prompts, err := c.Service.ListPrompts(ctx.Request.Context(), section)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, prompts)
}

// @Summary One prompt with its passage or playable audio
// @Tags TOEFL content
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "prompt id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /toefl/prompts/{id} [get]
func (c *ContentController) GetPrompt(ctx *gin.Context) {
	prompt, err := c.Service.GetPrompt(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, prompt)
}

// @Summary Available simulation presets
// @Tags TOEFL content
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /toefl/presets [get]
func (c *ContentController) GetPresets(ctx *gin.Context) {
	util.Success(ctx, c.Sampler.Presets())
}
