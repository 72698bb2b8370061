package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/controller"
	"campus_hunt_backend/internal/middleware"
	"campus_hunt_backend/internal/model"
	"campus_hunt_backend/internal/repository"
	"campus_hunt_backend/internal/service"
	"campus_hunt_backend/pkg/database"
	"campus_hunt_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// pngPayload carries the PNG signature so the mime sniff accepts it.
var pngPayload = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 64)...)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// studentEnv is an in-process student API: real router, real services,
// in-memory sqlite and progress store. Cookies carry over between
// requests like a browser session.
type studentEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	hunts   *service.HuntService
	student *controller.StudentController
	cfg     *config.Config
	cookies []*http.Cookie
}

func newStudentEnv(t *testing.T) *studentEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		JWT:     config.JWTConfig{Secret: "unit-test-secret-0123456789abcdef"},
		Session: config.SessionConfig{CookieName: "hunt_session", TTL: time.Hour},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Upload:  config.UploadConfig{MaxImageSizeMB: 5},
	}

	huntRepo := repository.NewHuntRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	photoRepo := repository.NewPhotoSubmissionRepository(db)

	store := service.NewMemoryProgressStore(cfg.Session.TTL)
	hunts := service.NewHuntService(huntRepo, questionRepo, submissionRepo, photoRepo, db)
	students := service.NewStudentService(huntRepo, questionRepo, photoRepo, store)
	progression := service.NewProgressionService(questionRepo, huntRepo, submissionRepo)
	storage := service.NewStorageService(cfg)

	studentController := controller.NewStudentController(students, progression, store, storage, cfg)
	qrController := controller.NewQRController(hunts, cfg)
	healthController := controller.NewHealthController(db, nil)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/health", healthController.HealthCheck)
	api.GET("/qr/display/:token", qrController.DisplayQR)

	student := api.Group("/student")
	student.Use(middleware.ParticipantMiddleware(cfg))
	{
		student.GET("/dashboard", studentController.Dashboard)
		student.POST("/hunts/:id/start", studentController.StartHunt)
		student.GET("/questions/:token", studentController.GetQuestion)
		student.POST("/submit-answer", studentController.SubmitAnswer)
		student.POST("/submit-photo", studentController.SubmitPhoto)
		student.GET("/hunts/:id/progress", studentController.Progress)
		student.POST("/logout", studentController.Logout)
	}

	return &studentEnv{
		router:  router,
		db:      db,
		hunts:   hunts,
		student: studentController,
		cfg:     cfg,
	}
}

func (e *studentEnv) do(t *testing.T, method, target string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range e.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if fresh := rec.Result().Cookies(); len(fresh) > 0 {
		e.cookies = fresh
	}

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func (e *studentEnv) get(t *testing.T, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return e.do(t, http.MethodGet, target, nil, "")
}

func (e *studentEnv) postJSON(t *testing.T, target string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, target, bytes.NewReader(raw), "application/json")
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func (e *studentEnv) seedHunt(t *testing.T, active bool, questions ...service.QuestionRequest) (*model.Hunt, []model.Question) {
	t.Helper()
	hunt, err := e.hunts.CreateHuntWithQuestions(1, service.HuntWithQuestionsRequest{
		HuntName:  "Campus Tour",
		Questions: questions,
	})
	require.NoError(t, err)
	if active {
		_, err = e.hunts.ToggleActive(1, hunt.ID)
		require.NoError(t, err)
	}
	listed, err := repository.NewQuestionRepository(e.db).ListByHunt(hunt.ID)
	require.NoError(t, err)
	return hunt, listed
}

func multipartImage(t *testing.T, filename, qrToken string, payload []byte) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	if qrToken != "" {
		require.NoError(t, writer.WriteField("qr_token", qrToken))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAnswerFlowOverHTTP(t *testing.T) {
	env := newStudentEnv(t)
	_, questions := env.seedHunt(t, true,
		service.QuestionRequest{
			QuestionType:     model.QuestionText,
			Text:             "Where are the oldest books kept?",
			CorrectAnswer:    "library",
			Hint:             "Think shelves",
			NextLocationHint: "Head to the fountain",
			Points:           10,
		},
		service.QuestionRequest{
			QuestionType:  model.QuestionText,
			Text:          "What splashes in the main square?",
			CorrectAnswer: "fountain",
			Points:        10,
		},
	)

	// First request issues the anonymous session cookie.
	rec, env1 := env.get(t, "/api/student/questions/"+questions[0].QRToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.cookies, 1)
	assert.Equal(t, "hunt_session", env.cookies[0].Name)
	assert.NotEmpty(t, env.cookies[0].Value)

	var shown struct {
		Question struct {
			Order   int    `json:"order"`
			Text    string `json:"text"`
			QRToken string `json:"qrToken"`
		} `json:"question"`
		HasNext bool `json:"hasNext"`
	}
	decodeData(t, env1, &shown)
	assert.Equal(t, 1, shown.Question.Order)
	assert.Equal(t, "Where are the oldest books kept?", shown.Question.Text)
	assert.True(t, shown.HasNext)

	// Wrong answer: no points, hint comes back.
	wrong := "archive"
	rec, env2 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": questions[0].QRToken,
		"answer":   wrong,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var miss service.AnswerResult
	decodeData(t, env2, &miss)
	assert.False(t, miss.Correct)
	assert.Equal(t, 1, miss.Attempts)
	assert.Zero(t, miss.PointsEarned)
	assert.Zero(t, miss.TotalScore)
	assert.Equal(t, "Think shelves", miss.Hint)

	// Second attempt, sloppy casing and spacing: half points.
	rec, env3 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": questions[0].QRToken,
		"answer":   "  LIBRARY ",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var hit service.AnswerResult
	decodeData(t, env3, &hit)
	assert.True(t, hit.Correct)
	assert.Equal(t, 2, hit.Attempts)
	assert.Equal(t, 5, hit.PointsEarned)
	assert.Equal(t, 5, hit.TotalScore)
	assert.Equal(t, questions[1].QRToken, hit.NextQRToken)
	assert.Equal(t, "Head to the fountain", hit.NextLocationHint)
	assert.True(t, hit.HasNext)
	assert.False(t, hit.IsLastQuestion)

	// Final question completes the hunt and writes the record.
	rec, env4 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": questions[1].QRToken,
		"answer":   "fountain",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var last service.AnswerResult
	decodeData(t, env4, &last)
	assert.True(t, last.Correct)
	assert.Equal(t, 10, last.PointsEarned)
	assert.Equal(t, 15, last.TotalScore)
	assert.True(t, last.IsLastQuestion)
	assert.False(t, last.HasNext)
	assert.NotEmpty(t, last.CompletionMessage)

	var records []model.Submission
	require.NoError(t, env.db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, 15, records[0].TotalScore)
	assert.Equal(t, 20, records[0].MaxScore)
	assert.Equal(t, 2, records[0].CompletedQuestions)
	assert.Equal(t, 2, records[0].TotalQuestions)
	assert.Contains(t, records[0].StudentName, "Student_")

	// Replaying the finished question changes nothing.
	rec, env5 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": questions[1].QRToken,
		"answer":   "fountain",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var replay service.AnswerResult
	decodeData(t, env5, &replay)
	assert.True(t, replay.AlreadyCompleted)
	assert.Equal(t, 15, replay.TotalScore)

	require.NoError(t, env.db.Find(&records).Error)
	assert.Len(t, records, 1, "replay must not write a second record")
}

func TestSubmitAnswerValidation(t *testing.T) {
	env := newStudentEnv(t)
	_, active := env.seedHunt(t, true,
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "q", CorrectAnswer: "a"},
	)
	_, dormant := env.seedHunt(t, false,
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "q", CorrectAnswer: "a"},
	)

	rec, env1 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": active[0].QRToken,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "answer field is required")
	assert.Equal(t, "Missing required fields", env1.Message)

	rec, _ = env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": "no-such-token",
		"answer":   "a",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env2 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": dormant[0].QRToken,
		"answer":   "a",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Hunt is not active", env2.Message)

	// An empty answer string is still an answer, just a wrong one.
	rec, env3 := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": active[0].QRToken,
		"answer":   "",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var graded service.AnswerResult
	decodeData(t, env3, &graded)
	assert.False(t, graded.Correct)
	assert.Equal(t, 1, graded.Attempts)
}

func TestPhotoUploadOverHTTP(t *testing.T) {
	env := newStudentEnv(t)
	_, questions := env.seedHunt(t, true,
		service.QuestionRequest{QuestionType: model.QuestionPhoto, Text: "Snap the statue", Points: 20},
	)
	token := questions[0].QRToken

	body, contentType := multipartImage(t, "statue.png", token, pngPayload)
	rec, env1 := env.do(t, http.MethodPost, "/api/student/submit-photo", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.AnswerResult
	decodeData(t, env1, &result)
	assert.True(t, result.Correct)
	assert.Equal(t, 20, result.PointsEarned)
	assert.True(t, result.IsLastQuestion)
	assert.Contains(t, result.ImageURL, "/uploads/")
	assert.Contains(t, result.ImageURL, "statue.png")

	var photos []model.PhotoSubmission
	require.NoError(t, env.db.Find(&photos).Error)
	require.Len(t, photos, 1)
	assert.Equal(t, questions[0].ID, photos[0].QuestionID)
	assert.NotEmpty(t, photos[0].ParticipantID)

	// Finishing the single question also wrote the completion record.
	var records []model.Submission
	require.NoError(t, env.db.Find(&records).Error)
	assert.Len(t, records, 1)

	// Re-uploading replaces the row and removes the old file from disk.
	body, contentType = multipartImage(t, "retake.png", token, pngPayload)
	rec, _ = env.do(t, http.MethodPost, "/api/student/submit-photo", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, env.db.Find(&photos).Error)
	require.Len(t, photos, 1)
	assert.Contains(t, photos[0].Filename, "retake.png")

	entries, err := os.ReadDir(env.cfg.Storage.LocalPath)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the replaced photo must be gone")
	assert.Contains(t, entries[0].Name(), "retake.png")
}

func TestPhotoUploadRejections(t *testing.T) {
	env := newStudentEnv(t)
	_, questions := env.seedHunt(t, true,
		service.QuestionRequest{QuestionType: model.QuestionPhoto, Text: "Snap the statue"},
	)
	token := questions[0].QRToken

	t.Run("missing token", func(t *testing.T) {
		body, contentType := multipartImage(t, "statue.png", "", pngPayload)
		rec, env1 := env.do(t, http.MethodPost, "/api/student/submit-photo", body, contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required fields", env1.Message)
	})

	t.Run("bad extension", func(t *testing.T) {
		body, contentType := multipartImage(t, "notes.txt", token, pngPayload)
		rec, env1 := env.do(t, http.MethodPost, "/api/student/submit-photo", body, contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env1.Message, "Invalid file type")
	})

	t.Run("image extension but text content", func(t *testing.T) {
		body, contentType := multipartImage(t, "fake.png", token, []byte("just some words, no pixels"))
		rec, env1 := env.do(t, http.MethodPost, "/api/student/submit-photo", body, contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Uploaded file is not an image", env1.Message)
	})

	t.Run("over the reloaded size cap", func(t *testing.T) {
		env.student.ApplyConfig(&config.Config{Upload: config.UploadConfig{MaxImageSizeMB: 1}})
		huge := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x01}, 1200*1024)...)
		body, contentType := multipartImage(t, "huge.png", token, huge)
		rec, env1 := env.do(t, http.MethodPost, "/api/student/submit-photo", body, contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "File too large. Maximum size is 1MB", env1.Message)
	})

	var photos []model.PhotoSubmission
	require.NoError(t, env.db.Find(&photos).Error)
	assert.Empty(t, photos, "rejected uploads must not persist")
}

func TestStartDashboardAndProgress(t *testing.T) {
	env := newStudentEnv(t)
	hunt, questions := env.seedHunt(t, true,
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "q1", CorrectAnswer: "a", Points: 10},
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "q2", CorrectAnswer: "b", Points: 10},
	)

	rec, startEnv := env.postJSON(t, fmt.Sprintf("/api/student/hunts/%d/start", hunt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var started struct {
		HuntID             uint   `json:"huntId"`
		FirstQuestionToken string `json:"firstQuestionToken"`
		CurrentQuestion    int    `json:"currentQuestion"`
		Score              int    `json:"score"`
	}
	decodeData(t, startEnv, &started)
	assert.Equal(t, hunt.ID, started.HuntID)
	assert.Equal(t, questions[0].QRToken, started.FirstQuestionToken)
	assert.Equal(t, 1, started.CurrentQuestion)
	assert.Zero(t, started.Score)

	rec, progressEnv := env.get(t, fmt.Sprintf("/api/student/hunts/%d/progress", hunt.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot struct {
		Hunt struct {
			Name string `json:"name"`
		} `json:"hunt"`
		Progress       *model.HuntProgress `json:"progress"`
		TotalQuestions int                 `json:"totalQuestions"`
	}
	decodeData(t, progressEnv, &snapshot)
	assert.Equal(t, "Campus Tour", snapshot.Hunt.Name)
	require.NotNil(t, snapshot.Progress)
	assert.Equal(t, 1, snapshot.Progress.CurrentQuestion)
	assert.Equal(t, 2, snapshot.TotalQuestions)

	rec, dashEnv := env.get(t, "/api/student/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		StudentName  string            `json:"studentName"`
		ActiveHunts  []json.RawMessage `json:"activeHunts"`
		StartedHunts []json.RawMessage `json:"startedHunts"`
	}
	decodeData(t, dashEnv, &dash)
	assert.Contains(t, dash.StudentName, "Student_")
	assert.Len(t, dash.ActiveHunts, 1)
	assert.Len(t, dash.StartedHunts, 1)

	// Renaming through a submission sticks to the session.
	rec, _ = env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token":     questions[0].QRToken,
		"answer":       "a",
		"student_name": "Ada",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, dashEnv = env.get(t, "/api/student/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, dashEnv, &dash)
	assert.Equal(t, "Ada", dash.StudentName)

	rec, _ = env.get(t, fmt.Sprintf("/api/student/hunts/%d/progress", 9999))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutDropsSessionAndProgress(t *testing.T) {
	env := newStudentEnv(t)
	hunt, questions := env.seedHunt(t, true,
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "q1", CorrectAnswer: "a", Points: 10},
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "q2", CorrectAnswer: "b", Points: 10},
	)

	rec, _ := env.postJSON(t, "/api/student/submit-answer", gin.H{
		"qr_token": questions[0].QRToken,
		"answer":   "a",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.postJSON(t, "/api/student/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.cookies, 1)
	assert.Empty(t, env.cookies[0].Value, "logout must clear the session cookie")

	// The expired cookie yields a fresh participant with no history.
	rec, progressEnv := env.get(t, fmt.Sprintf("/api/student/hunts/%d/progress", hunt.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot struct {
		Progress *model.HuntProgress `json:"progress"`
	}
	decodeData(t, progressEnv, &snapshot)
	assert.Nil(t, snapshot.Progress)
}

func TestDisplayQRIsPublic(t *testing.T) {
	env := newStudentEnv(t)
	_, questions := env.seedHunt(t, false,
		service.QuestionRequest{QuestionType: model.QuestionText, Text: "Where to?", CorrectAnswer: "here", Points: 10},
	)
	token := questions[0].QRToken

	// Works without any session and before the hunt goes live, so the
	// codes can be printed ahead of class.
	rec, env1 := env.get(t, "/api/qr/display/"+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.cookies, "public endpoint must not start a session")

	var page struct {
		Hunt struct {
			Name string `json:"name"`
		} `json:"hunt"`
		Question struct {
			Text   string `json:"text"`
			Points int    `json:"points"`
		} `json:"question"`
		QRToken string `json:"qrToken"`
		QRURL   string `json:"qrUrl"`
		QRText  string `json:"qrText"`
	}
	decodeData(t, env1, &page)
	assert.Equal(t, "Campus Tour", page.Hunt.Name)
	assert.Equal(t, "Where to?", page.Question.Text)
	assert.Equal(t, token, page.QRToken)
	assert.Contains(t, page.QRURL, "/student/question/"+token)
	assert.Contains(t, page.QRText, page.QRURL)

	rec, _ = env.get(t, "/api/qr/display/no-such-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newStudentEnv(t)

	rec, env1 := env.get(t, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decodeData(t, env1, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Components["database"])
	_, hasRedis := health.Components["redis"]
	assert.False(t, hasRedis, "redis is optional and not configured here")
}
