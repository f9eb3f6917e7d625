package controller

import (
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/service"
	"toefl_sim_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SimulationController struct {
	Sampler    *service.QuestionSampler
	Sessions   *service.SessionTracker
	Simulation *service.SimulationService
	Scorer     *service.Scorer
}

func NewSimulationController(sampler *service.QuestionSampler, sessions *service.SessionTracker, simulation *service.SimulationService, scorer *service.Scorer) *SimulationController {
	return &SimulationController{Sampler: sampler, Sessions: sessions, Simulation: simulation, Scorer: scorer}
}

type sessionRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type beginRequest struct {
	Mode      string `json:"mode" binding:"required"`
	PromptID  string `json:"promptId"`
	PackageID string `json:"packageId"`
	Preset    string `json:"preset"`
}

type submitRequest struct {
	Mode    string                    `json:"mode" binding:"required"`
	Answers []service.SubmittedAnswer `json:"answers" binding:"required,dive"`
}

func parseMode(ctx *gin.Context, raw string) (model.SimulationMode, bool) {
	mode, ok := model.ParseMode(raw)
	if !ok {
		util.BadRequest(ctx, "mode must be one of full, listening, reading, structure")
		return "", false
	}
	return mode, true
}

// packageID accepts packageId as another name for promptId.
func packageID(promptID, packageID string) string {
	if promptID != "" {
		return promptID
	}
	return packageID
}

// @Summary Assemble a question set
// @Description Answers and explanations are never included.
// @Tags TOEFL simulation
// @Produce json
// @Security ApiKeyAuth
// @Param mode query string true "full | listening | reading | structure"
// @Param promptId query string false "prompt group for listening/reading"
// @Param packageId query string false "alias of promptId"
// @Param preset query string false "full | short | mini"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /toefl/questions [get]
func (c *SimulationController) GetQuestions(ctx *gin.Context) {
	mode, ok := parseMode(ctx, ctx.Query("mode"))
	if !ok {
		return
	}

	questions, err := c.Sampler.BuildTest(ctx.Request.Context(), mode, service.TestSelector{
		PromptID: packageID(ctx.Query("promptId"), ctx.Query("packageId")),
		Preset:   ctx.Query("preset"),
	})
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"mode": mode, "questions": questions})
}

// @Summary Check for an active session
// @Tags TOEFL simulation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body sessionRequest true "mode"
// @Success 200 {object} util.Response
// @Router /toefl/simulation/check [post]
func (c *SimulationController) CheckSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req sessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mode, ok := parseMode(ctx, req.Mode)
	if !ok {
		return
	}

	exists, err := c.Sessions.Exists(ctx.Request.Context(), user.UserID, mode)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"exists": exists})
}

// @Summary Start a session, or return the active one
// @Tags TOEFL simulation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body sessionRequest true "mode"
// @Success 200 {object} util.Response
// @Router /toefl/simulation/start [post]
func (c *SimulationController) StartSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req sessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mode, ok := parseMode(ctx, req.Mode)
	if !ok {
		return
	}

	session, err := c.Sessions.Start(ctx.Request.Context(), user.UserID, mode)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// @Summary Discard the active session
// @Tags TOEFL simulation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body sessionRequest true "mode"
// @Success 200 {object} util.Response
// @Router /toefl/simulation/reset [post]
func (c *SimulationController) ResetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req sessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mode, ok := parseMode(ctx, req.Mode)
	if !ok {
		return
	}

	if err := c.Sessions.Reset(ctx.Request.Context(), user.UserID, mode); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"reset": true})
}

// @Summary Begin a fresh attempt
// @Description Drops the active session for the mode, assembles questions and opens a new session.
// @Tags TOEFL simulation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body beginRequest true "mode and selectors"
// @Success 201 {object} util.Response
// @Router /toefl/simulation/begin [post]
func (c *SimulationController) Begin(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req beginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mode, ok := parseMode(ctx, req.Mode)
	if !ok {
		return
	}

	start, err := c.Simulation.Begin(ctx.Request.Context(), user.UserID, mode, service.TestSelector{
		PromptID: packageID(req.PromptID, req.PackageID),
		Preset:   req.Preset,
	})
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, start)
}

// @Summary Submit answers for grading
// @Tags TOEFL simulation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body submitRequest true "mode and answers"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /toefl/simulation/submit [post]
func (c *SimulationController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mode, ok := parseMode(ctx, req.Mode)
	if !ok {
		return
	}

	history, err := c.Scorer.Submit(ctx.Request.Context(), user.UserID, mode, req.Answers)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"success":   true,
		"historyId": history.ID,
		"score":     history.Score,
	})
}
