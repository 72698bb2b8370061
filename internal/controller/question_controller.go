package controller

import (
	"campus_hunt_backend/internal/service"
	"campus_hunt_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	HuntService *service.HuntService
}

func NewQuestionController(huntService *service.HuntService) *QuestionController {
	return &QuestionController{HuntService: huntService}
}

// AddQuestion godoc
// @Summary Append a question to a hunt
// @Description The question is placed at the next order position and gets a fresh QR token.
// @Tags questions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Hunt ID"
// @Param body body service.QuestionRequest true "Question details"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "Text or answer missing"
// @Router /teacher/hunts/{id}/questions [post]
func (c *QuestionController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.HuntService.AddQuestion(user.UserID, huntID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary Edit a question in place
// @Description Order and QR token never change, so printed codes stay valid.
// @Tags questions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Question ID"
// @Param body body service.QuestionRequest true "New question content"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /teacher/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.HuntService.UpdateQuestion(user.UserID, questionID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary Delete a question and close the order gap
// @Tags questions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response
// @Router /teacher/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.HuntService.DeleteQuestion(user.UserID, questionID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Question deleted successfully"})
}
