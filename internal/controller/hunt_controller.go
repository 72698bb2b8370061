package controller

import (
	"errors"
	"strconv"

	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/service"
	"campus_hunt_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HuntController struct {
	HuntService *service.HuntService
	Config      *config.Config
}

func NewHuntController(huntService *service.HuntService, cfg *config.Config) *HuntController {
	return &HuntController{HuntService: huntService, Config: cfg}
}

// respondServiceError maps the shared service errors onto the response
// envelope. Unknown errors are logged and become a 500.
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrHuntNotFound), errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrHuntNoQuestions):
		util.Error(ctx, 404, "This hunt has no questions yet")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrHuntNotActive):
		util.Error(ctx, 403, "Hunt is not active")
	case errors.Is(err, util.ErrMissingField):
		util.BadRequest(ctx, "Missing required fields")
	default:
		util.LogInternalError(ctx, err)
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// CreateHunt godoc
// @Summary Create a hunt
// @Tags hunts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.HuntCreateRequest true "Hunt details"
// @Success 201 {object} util.Response{data=model.Hunt}
// @Failure 400 {object} util.Response "Name missing"
// @Router /teacher/hunts [post]
func (c *HuntController) CreateHunt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.HuntCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	hunt, err := c.HuntService.CreateHunt(user.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, hunt)
}

// CreateHuntWithQuestions godoc
// @Summary Create a hunt together with its question trail
// @Description Questions missing text or answer are skipped; the kept ones get dense 1-based orders and fresh QR tokens.
// @Tags hunts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.HuntWithQuestionsRequest true "Hunt and questions"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "Name missing"
// @Router /teacher/hunts/with-questions [post]
func (c *HuntController) CreateHuntWithQuestions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.HuntWithQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	hunt, err := c.HuntService.CreateHuntWithQuestions(user.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, gin.H{"huntId": hunt.ID, "message": "Hunt created successfully"})
}

// ListHunts godoc
// @Summary The teacher's own hunts
// @Tags hunts
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /teacher/hunts [get]
func (c *HuntController) ListHunts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	hunts, err := c.HuntService.ListByTeacher(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"hunts": hunts})
}

// questionView is the teacher-facing projection of one question,
// including everything needed to print its QR code.
type questionView struct {
	ID               uint     `json:"id"`
	Order            int      `json:"order"`
	Type             string   `json:"type"`
	Text             string   `json:"text"`
	Choices          []string `json:"choices"`
	CorrectAnswer    string   `json:"correctAnswer"`
	Hint             string   `json:"hint"`
	NextLocationHint string   `json:"nextLocationHint"`
	QRToken          string   `json:"qrToken"`
	QRURL            string   `json:"qrUrl"`
	QRText           string   `json:"qrText"`
	Points           int      `json:"points"`
	IsLast           bool     `json:"isLast"`
}

// GetHunt godoc
// @Summary Hunt detail with its questions and QR material
// @Tags hunts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response "Not the owner"
// @Failure 404 {object} util.Response "Unknown hunt"
// @Router /teacher/hunts/{id} [get]
func (c *HuntController) GetHunt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	hunt, err := c.HuntService.GetOwnedHuntWithQuestions(user.UserID, huntID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	baseURL := util.RequestBaseURL(ctx, c.Config.Server.PublicBaseURL)
	questions := make([]questionView, 0, len(hunt.Questions))
	for _, q := range hunt.Questions {
		qrURL := util.QRCodeURL(baseURL, q.QRToken)
		questions = append(questions, questionView{
			ID:               q.ID,
			Order:            q.QuestionOrder,
			Type:             q.QuestionType,
			Text:             q.Text,
			Choices:          q.DecodeChoices(),
			CorrectAnswer:    q.CorrectAnswer,
			Hint:             q.Hint,
			NextLocationHint: q.NextLocationHint,
			QRToken:          q.QRToken,
			QRURL:            qrURL,
			QRText:           util.QRCodeText(qrURL),
			Points:           q.Points,
			IsLast:           q.QuestionOrder == len(hunt.Questions),
		})
	}

	util.Success(ctx, gin.H{
		"hunt":      hunt,
		"questions": questions,
	})
}

// UpdateHunt godoc
// @Summary Edit a hunt's name and description
// @Tags hunts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Param body body service.HuntCreateRequest true "New details"
// @Success 200 {object} util.Response{data=model.Hunt}
// @Router /teacher/hunts/{id} [put]
func (c *HuntController) UpdateHunt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.HuntCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	hunt, err := c.HuntService.UpdateHunt(user.UserID, huntID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, hunt)
}

// DeleteHunt godoc
// @Summary Delete a hunt and everything under it
// @Description Removes the hunt, its questions and their photo submissions. Completion records stay.
// @Tags hunts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response
// @Router /teacher/hunts/{id} [delete]
func (c *HuntController) DeleteHunt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.HuntService.DeleteHunt(user.UserID, huntID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Hunt deleted successfully"})
}

// ToggleActive godoc
// @Summary Flip whether students may enter the hunt
// @Tags hunts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response{data=object}
// @Router /teacher/hunts/{id}/toggle-active [post]
func (c *HuntController) ToggleActive(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	isActive, err := c.HuntService.ToggleActive(user.UserID, huntID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	status := "inactive"
	if isActive {
		status = "active"
	}
	util.Success(ctx, gin.H{"isActive": isActive, "message": "Hunt is now " + status})
}

// HuntResults godoc
// @Summary Completion records for a hunt, newest first
// @Tags hunts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response{data=object}
// @Router /teacher/hunts/{id}/results [get]
func (c *HuntController) HuntResults(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	hunt, submissions, err := c.HuntService.HuntResults(user.UserID, huntID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	results := make([]gin.H, 0, len(submissions))
	for _, sub := range submissions {
		results = append(results, gin.H{
			"id":                 sub.ID,
			"studentName":        sub.StudentName,
			"totalScore":         sub.TotalScore,
			"maxScore":           sub.MaxScore,
			"completedQuestions": sub.CompletedQuestions,
			"totalQuestions":     sub.TotalQuestions,
			"marks":              sub.DecodeMarks(),
			"completedAt":        sub.CompletedAt,
		})
	}

	util.Success(ctx, gin.H{
		"hunt":        gin.H{"id": hunt.ID, "name": hunt.Name},
		"submissions": results,
	})
}

// HuntPhotos godoc
// @Summary Photo submissions handed in for a hunt
// @Tags hunts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response{data=object}
// @Router /teacher/hunts/{id}/photos [get]
func (c *HuntController) HuntPhotos(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	photos, err := c.HuntService.HuntPhotos(user.UserID, huntID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"photos": photos})
}
