package controller

import (
	"fmt"
	"strings"
	"sync/atomic"

	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/middleware"
	"campus_hunt_backend/internal/model"
	"campus_hunt_backend/internal/service"
	"campus_hunt_backend/internal/util"
	"campus_hunt_backend/pkg/logger"
	"campus_hunt_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StudentController serves the participant-facing flow: scanning a QR
// token, answering, uploading photos and watching progress. Everything
// here runs under the anonymous participant session.
type StudentController struct {
	StudentService *service.StudentService
	Progression    *service.ProgressionService
	Store          service.ProgressStore
	Storage        *service.StorageService
	Config         *config.Config

	// maxUploadBytes is read per request and swapped on config reload.
	maxUploadBytes atomic.Int64
}

func NewStudentController(
	studentService *service.StudentService,
	progression *service.ProgressionService,
	store service.ProgressStore,
	storage *service.StorageService,
	cfg *config.Config,
) *StudentController {
	c := &StudentController{
		StudentService: studentService,
		Progression:    progression,
		Store:          store,
		Storage:        storage,
		Config:         cfg,
	}
	c.maxUploadBytes.Store(cfg.Upload.MaxImageSizeMB * 1024 * 1024)
	return c
}

// ApplyConfig picks up hot-reloaded settings.
func (c *StudentController) ApplyConfig(cfg *config.Config) {
	c.maxUploadBytes.Store(cfg.Upload.MaxImageSizeMB * 1024 * 1024)
}

// Dashboard godoc
// @Summary Active hunts plus the participant's started hunts
// @Tags students
// @Produce json
// @Success 200 {object} util.Response{data=object}
// @Router /student/dashboard [get]
func (c *StudentController) Dashboard(ctx *gin.Context) {
	participant := util.GetParticipantFromContext(ctx)
	if participant == nil {
		util.Unauthorized(ctx)
		return
	}

	active, started, err := c.StudentService.Dashboard(ctx.Request.Context(), participant.ParticipantID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"studentName":  participant.DisplayName,
		"activeHunts":  active,
		"startedHunts": started,
	})
}

// StartHunt godoc
// @Summary Enter a hunt
// @Description Creates progress on first entry and returns the first question's QR token.
// @Tags students
// @Produce json
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "Hunt unknown, inactive or empty"
// @Router /student/hunts/{id}/start [post]
func (c *StudentController) StartHunt(ctx *gin.Context) {
	participant := util.GetParticipantFromContext(ctx)
	if participant == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID := util.MustParseUint(ctx.Param("id"))

	first, progress, err := c.StudentService.StartHunt(ctx.Request.Context(), participant.ParticipantID, huntID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"huntId":             huntID,
		"firstQuestionToken": first.QRToken,
		"currentQuestion":    progress.CurrentQuestion,
		"score":              progress.Score,
		"startedAt":          progress.StartedAt,
	})
}

// GetQuestion godoc
// @Summary The question behind a scanned QR token
// @Description Returns the prompt without the answer. Fails when the token is unknown or the hunt is inactive.
// @Tags students
// @Produce json
// @Param token path string true "QR token"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response "Hunt not active"
// @Failure 404 {object} util.Response "Unknown token"
// @Router /student/questions/{token} [get]
func (c *StudentController) GetQuestion(ctx *gin.Context) {
	question, hunt, err := c.Progression.ResolveStep(ctx.Param("token"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	hasNext, err := c.Progression.HasNext(question)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"hunt": gin.H{"id": hunt.ID, "name": hunt.Name},
		"question": gin.H{
			"order":   question.QuestionOrder,
			"type":    question.QuestionType,
			"text":    question.Text,
			"choices": question.PresentChoices(),
			"hint":    question.Hint,
			"points":  question.Points,
			"qrToken": question.QRToken,
		},
		"hasNext": hasNext,
	})
}

// SubmitAnswerRequest is the answer payload. Answer is a pointer so an
// empty string still counts as an answer; only an absent field is a
// missing one.
// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	QRToken     string  `json:"qr_token" binding:"required"`
	Answer      *string `json:"answer" binding:"required"`
	StudentName string  `json:"student_name"`
}

// SubmitAnswer godoc
// @Summary Submit an answer for a question
// @Description Grades the answer, applies the attempt decay to the points and advances the participant. Finishing the last question writes the completion record.
// @Tags students
// @Accept json
// @Produce json
// @Param body body SubmitAnswerRequest true "Answer"
// @Success 200 {object} util.Response{data=service.AnswerResult}
// @Failure 400 {object} util.Response "Missing fields"
// @Failure 403 {object} util.Response "Hunt not active"
// @Failure 404 {object} util.Response "Unknown token"
// @Router /student/submit-answer [post]
func (c *StudentController) SubmitAnswer(ctx *gin.Context) {
	participant := util.GetParticipantFromContext(ctx)
	if participant == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Missing required fields")
		return
	}

	participant = c.renameIfRequested(ctx, participant, req.StudentName)

	question, hunt, err := c.Progression.ResolveStep(req.QRToken)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	progress, err := c.loadOrStartProgress(ctx, participant.ParticipantID, hunt.ID, question.QuestionOrder)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	result, err := c.Progression.SubmitAnswer(progress, question, *req.Answer, participant.DisplayName)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if err := c.Store.Save(ctx.Request.Context(), participant.ParticipantID, progress); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	monitoring.ObserveAnswer(answerOutcome(result))
	util.Success(ctx, result)
}

// SubmitPhoto godoc
// @Summary Hand in a photo for a photo question
// @Description Accepts a multipart image, stores it per participant and runs the same progression as a correct answer.
// @Tags students
// @Accept mpfd
// @Produce json
// @Param image formData file true "Photo (png/jpg/jpeg/gif, capped size)"
// @Param qr_token formData string true "QR token"
// @Param student_name formData string false "Display name"
// @Success 200 {object} util.Response{data=service.AnswerResult}
// @Failure 400 {object} util.Response "Missing or invalid upload"
// @Router /student/submit-photo [post]
func (c *StudentController) SubmitPhoto(ctx *gin.Context) {
	participant := util.GetParticipantFromContext(ctx)
	if participant == nil {
		util.Unauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		util.BadRequest(ctx, "No image uploaded")
		return
	}

	qrToken := ctx.PostForm("qr_token")
	if qrToken == "" {
		util.BadRequest(ctx, "Missing required fields")
		return
	}

	participant = c.renameIfRequested(ctx, participant, ctx.PostForm("student_name"))

	if file.Filename == "" {
		util.BadRequest(ctx, "No image selected")
		return
	}
	if !util.HasAllowedExtension(file.Filename, util.AllowedImageExtensions) {
		util.BadRequest(ctx, "Invalid file type. Allowed: PNG, JPG, JPEG, GIF")
		return
	}

	maxBytes := c.maxUploadBytes.Load()
	if file.Size > maxBytes {
		util.BadRequest(ctx, fmt.Sprintf("File too large. Maximum size is %dMB", maxBytes/(1024*1024)))
		return
	}

	question, hunt, err := c.Progression.ResolveStep(qrToken)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	// Sniff the content before trusting the extension.
	probe, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	contentType, err := util.ValidateMimeType(probe, []string{util.MimeImage})
	probe.Close()
	if err != nil {
		util.BadRequest(ctx, "Uploaded file is not an image")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	filename := fmt.Sprintf("%s_%s", uuid.New().String(), util.SanitizeFilename(file.Filename))
	url, err := c.Storage.Upload(ctx.Request.Context(), filename, src, file.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	replaced, err := c.StudentService.RecordPhoto(question.ID, participant.ParticipantID, participant.DisplayName, filename, url)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if replaced != "" {
		// A stale blob must not fail the submission.
		if err := c.Storage.Delete(ctx.Request.Context(), replaced); err != nil {
			logger.Log.Warn("Failed to remove replaced photo",
				zap.String("filename", replaced),
				zap.Error(err))
		}
	}

	progress, err := c.loadOrStartProgress(ctx, participant.ParticipantID, hunt.ID, question.QuestionOrder)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	result, err := c.Progression.SubmitPhoto(progress, question, participant.DisplayName)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	result.ImageURL = url

	if err := c.Store.Save(ctx.Request.Context(), participant.ParticipantID, progress); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	monitoring.ObserveAnswer(answerOutcome(result))
	util.Success(ctx, result)
}

// Progress godoc
// @Summary Progress snapshot for one hunt
// @Tags students
// @Produce json
// @Param id path int true "Hunt ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "Unknown hunt"
// @Router /student/hunts/{id}/progress [get]
func (c *StudentController) Progress(ctx *gin.Context) {
	participant := util.GetParticipantFromContext(ctx)
	if participant == nil {
		util.Unauthorized(ctx)
		return
	}
	huntID := util.MustParseUint(ctx.Param("id"))

	hunt, progress, total, err := c.StudentService.Progress(ctx.Request.Context(), participant.ParticipantID, huntID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"hunt":           gin.H{"id": hunt.ID, "name": hunt.Name},
		"progress":       progress,
		"totalQuestions": total,
	})
}

// Logout godoc
// @Summary End the participant session
// @Description Clears the session cookie and discards all stored progress.
// @Tags students
// @Produce json
// @Success 200 {object} util.Response
// @Router /student/logout [post]
func (c *StudentController) Logout(ctx *gin.Context) {
	participant := util.GetParticipantFromContext(ctx)
	if participant == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Store.Clear(ctx.Request.Context(), participant.ParticipantID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	middleware.ClearParticipantCookie(ctx, c.Config)

	util.Success(ctx, gin.H{"message": "Logged out successfully"})
}

// loadOrStartProgress fetches the participant's progress for a hunt,
// lazily creating it the way a direct QR scan does: positioned at the
// scanned question rather than at 1.
func (c *StudentController) loadOrStartProgress(ctx *gin.Context, participantID string, huntID uint, startOrder int) (*model.HuntProgress, error) {
	progress, err := c.Store.Get(ctx.Request.Context(), participantID, huntID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = model.NewHuntProgress(huntID, startOrder)
	}
	return progress, nil
}

// renameIfRequested updates the participant's display name and
// re-issues the session cookie when the submission carries a new name.
func (c *StudentController) renameIfRequested(ctx *gin.Context, participant *util.ParticipantClaims, name string) *util.ParticipantClaims {
	name = strings.TrimSpace(name)
	if name == "" || name == participant.DisplayName {
		return participant
	}

	renamed := &util.ParticipantClaims{
		ParticipantID: participant.ParticipantID,
		DisplayName:   name,
	}
	token, err := util.GenerateParticipantJWT(renamed, c.Config.JWT.Secret, c.Config.Session.TTL)
	if err != nil {
		// Keep the old name rather than failing the submission.
		return participant
	}
	middleware.SetParticipantCookie(ctx, c.Config, token)
	ctx.Set("participant", renamed)
	return renamed
}

func answerOutcome(result *service.AnswerResult) string {
	switch {
	case result.AlreadyCompleted:
		return "replay"
	case result.Correct:
		return "correct"
	default:
		return "incorrect"
	}
}
