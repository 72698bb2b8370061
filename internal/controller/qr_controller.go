package controller

import (
	"errors"

	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/service"
	"campus_hunt_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// QRController serves the printable QR material for a question. The
// page is public and works on inactive hunts, so teachers can print
// codes before opening the hunt to students.
type QRController struct {
	HuntService *service.HuntService
	Config      *config.Config
}

func NewQRController(huntService *service.HuntService, cfg *config.Config) *QRController {
	return &QRController{HuntService: huntService, Config: cfg}
}

// DisplayQR godoc
// @Summary Printable QR code material for a question
// @Tags qr
// @Produce json
// @Param token path string true "QR token"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "Unknown token"
// @Router /qr/display/{token} [get]
func (c *QRController) DisplayQR(ctx *gin.Context) {
	question, err := c.HuntService.QuestionRepo.FindByToken(ctx.Param("token"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	hunt, err := c.HuntService.HuntRepo.FindByID(question.HuntID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	baseURL := util.RequestBaseURL(ctx, c.Config.Server.PublicBaseURL)
	qrURL := util.QRCodeURL(baseURL, question.QRToken)

	util.Success(ctx, gin.H{
		"hunt": gin.H{"id": hunt.ID, "name": hunt.Name},
		"question": gin.H{
			"order":  question.QuestionOrder,
			"type":   question.QuestionType,
			"text":   question.Text,
			"points": question.Points,
		},
		"qrToken": question.QRToken,
		"qrUrl":   qrURL,
		"qrText":  util.QRCodeText(qrURL),
	})
}
