package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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

// teacherEnv is the authenticated half of the API: registration,
// login and hunt management behind the JWT middleware chain.
type teacherEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTeacherEnv(t *testing.T) *teacherEnv {
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
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			Secret:     "unit-test-secret-0123456789abcdef",
			ExpireTime: time.Hour,
		},
	}

	userRepo := repository.NewUserRepository(db)
	huntRepo := repository.NewHuntRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	photoRepo := repository.NewPhotoSubmissionRepository(db)

	authService := service.NewAuthService(userRepo, cfg)
	huntService := service.NewHuntService(huntRepo, questionRepo, submissionRepo, photoRepo, db)

	authController := controller.NewAuthController(authService)
	huntController := controller.NewHuntController(huntService, cfg)
	questionController := controller.NewQuestionController(huntService)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/register", authController.Register)
	api.POST("/login", authController.Login)

	authorized := api.Group("")
	authorized.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(userRepo),
		middleware.RoleMiddleware(model.Teacher, model.Admin),
	)
	{
		authorized.GET("/profile", authController.GetProfile)
		authorized.PUT("/profile", authController.UpdateProfile)

		hunts := authorized.Group("/teacher/hunts")
		{
			hunts.GET("", huntController.ListHunts)
			hunts.POST("", huntController.CreateHunt)
			hunts.POST("/with-questions", huntController.CreateHuntWithQuestions)
			hunts.GET("/:id", huntController.GetHunt)
			hunts.PUT("/:id", huntController.UpdateHunt)
			hunts.DELETE("/:id", huntController.DeleteHunt)
			hunts.POST("/:id/toggle-active", huntController.ToggleActive)
			hunts.GET("/:id/results", huntController.HuntResults)
			hunts.GET("/:id/photos", huntController.HuntPhotos)
			hunts.POST("/:id/questions", questionController.AddQuestion)
		}

		questions := authorized.Group("/teacher/questions")
		{
			questions.PUT("/:id", questionController.UpdateQuestion)
			questions.DELETE("/:id", questionController.DeleteQuestion)
		}
	}

	return &teacherEnv{router: router, db: db}
}

func (e *teacherEnv) request(t *testing.T, method, target, token string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

// signUp registers a teacher and returns a usable bearer token.
func (e *teacherEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	rec, _ := e.request(t, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Ms. Rivera",
		"email":    email,
		"password": "classroom-secret",
		"school":   "Eastside High",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := e.request(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    email,
		"password": "classroom-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &login)
	require.NotEmpty(t, login.Token)
	return login.Token
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTeacherEnv(t)

	rec, reg := env.request(t, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Ms. Rivera",
		"email":    "rivera@example.edu",
		"password": "classroom-secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uint `json:"id"`
	}
	decodeData(t, reg, &created)
	assert.NotZero(t, created.ID)

	rec, _ = env.request(t, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Impostor",
		"email":    "rivera@example.edu",
		"password": "classroom-secret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.request(t, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Short",
		"email":    "short@example.edu",
		"password": "tiny",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "passwords under 8 chars are rejected")

	rec, _ = env.request(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    "rivera@example.edu",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, login := env.request(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    "rivera@example.edu",
		"password": "classroom-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Token string `json:"token"`
	}
	decodeData(t, login, &got)
	require.NotEmpty(t, got.Token)

	rec, _ = env.request(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, profile := env.request(t, http.MethodGet, "/api/profile", got.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Email string         `json:"email"`
		Role  model.UserRole `json:"role"`
	}
	decodeData(t, profile, &me)
	assert.Equal(t, "rivera@example.edu", me.Email)
	assert.Equal(t, model.Teacher, me.Role)

	rec, updated := env.request(t, http.MethodPut, "/api/profile", got.Token, gin.H{
		"name":   "M. Rivera",
		"school": "Westside High",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		Name   string `json:"name"`
		School string `json:"school"`
		Email  string `json:"email"`
	}
	decodeData(t, updated, &after)
	assert.Equal(t, "M. Rivera", after.Name)
	assert.Equal(t, "Westside High", after.School)
	assert.Equal(t, "rivera@example.edu", after.Email, "email is not editable")

	rec, _ = env.request(t, http.MethodPut, "/api/profile", got.Token, gin.H{"school": "No Name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "name is required")
}

func TestHuntManagementOverHTTP(t *testing.T) {
	env := newTeacherEnv(t)
	token := env.signUp(t, "rivera@example.edu")

	rec, created := env.request(t, http.MethodPost, "/api/teacher/hunts/with-questions", token, gin.H{
		"huntName":        "Library Quest",
		"huntDescription": "Find your way around the stacks",
		"questions": []gin.H{
			{"questionType": model.QuestionText, "text": "Where do maps live?", "correctAnswer": "atlas corner", "points": 10},
			{"questionType": model.QuestionPhoto, "text": "Snap the globe", "points": 20},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ref struct {
		HuntID uint `json:"huntId"`
	}
	decodeData(t, created, &ref)
	require.NotZero(t, ref.HuntID)
	huntPath := fmt.Sprintf("/api/teacher/hunts/%d", ref.HuntID)

	rec, list := env.request(t, http.MethodGet, "/api/teacher/hunts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Hunts []model.Hunt `json:"hunts"`
	}
	decodeData(t, list, &listing)
	require.Len(t, listing.Hunts, 1)
	assert.Equal(t, "Library Quest", listing.Hunts[0].Name)
	assert.False(t, listing.Hunts[0].IsActive, "hunts start as drafts")

	rec, detail := env.request(t, http.MethodGet, huntPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Hunt      model.Hunt `json:"hunt"`
		Questions []struct {
			Order         int    `json:"order"`
			Type          string `json:"type"`
			CorrectAnswer string `json:"correctAnswer"`
			QRToken       string `json:"qrToken"`
			QRURL         string `json:"qrUrl"`
			IsLast        bool   `json:"isLast"`
		} `json:"questions"`
	}
	decodeData(t, detail, &page)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, 1, page.Questions[0].Order)
	assert.Equal(t, "atlas corner", page.Questions[0].CorrectAnswer)
	assert.Contains(t, page.Questions[0].QRURL, "/student/question/"+page.Questions[0].QRToken)
	assert.False(t, page.Questions[0].IsLast)
	assert.True(t, page.Questions[1].IsLast)

	rec, toggled := env.request(t, http.MethodPost, huntPath+"/toggle-active", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active struct {
		IsActive bool `json:"isActive"`
	}
	decodeData(t, toggled, &active)
	assert.True(t, active.IsActive)

	rec, _ = env.request(t, http.MethodPut, huntPath, token, gin.H{
		"name":        "Library Quest II",
		"description": "Updated",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, added := env.request(t, http.MethodPost, huntPath+"/questions", token, gin.H{
		"questionType":  model.QuestionText,
		"text":          "Count the reading rooms",
		"correctAnswer": "3",
		"points":        5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var question model.Question
	decodeData(t, added, &question)
	assert.Equal(t, 3, question.QuestionOrder)
	assert.NotEmpty(t, question.QRToken)

	rec, results := env.request(t, http.MethodGet, huntPath+"/results", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board struct {
		Hunt struct {
			Name string `json:"name"`
		} `json:"hunt"`
		Submissions []json.RawMessage `json:"submissions"`
	}
	decodeData(t, results, &board)
	assert.Equal(t, "Library Quest II", board.Hunt.Name)
	assert.Empty(t, board.Submissions)

	rec, gallery := env.request(t, http.MethodGet, huntPath+"/photos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var photoPage struct {
		Photos []model.PhotoSubmission `json:"photos"`
	}
	decodeData(t, gallery, &photoPage)
	assert.Empty(t, photoPage.Photos, "nothing uploaded yet")

	rec, _ = env.request(t, http.MethodDelete, huntPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.request(t, http.MethodGet, huntPath, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHuntOwnershipOverHTTP(t *testing.T) {
	env := newTeacherEnv(t)
	owner := env.signUp(t, "owner@example.edu")
	other := env.signUp(t, "other@example.edu")

	rec, created := env.request(t, http.MethodPost, "/api/teacher/hunts/with-questions", owner, gin.H{
		"huntName":  "Private Hunt",
		"questions": []gin.H{{"questionType": model.QuestionText, "text": "q", "correctAnswer": "a"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ref struct {
		HuntID uint `json:"huntId"`
	}
	decodeData(t, created, &ref)
	huntPath := fmt.Sprintf("/api/teacher/hunts/%d", ref.HuntID)

	rec, _ = env.request(t, http.MethodGet, huntPath, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "foreign hunts must not be readable")

	rec, _ = env.request(t, http.MethodDelete, huntPath, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.request(t, http.MethodGet, huntPath+"/photos", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, list := env.request(t, http.MethodGet, "/api/teacher/hunts", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Hunts []model.Hunt `json:"hunts"`
	}
	decodeData(t, list, &listing)
	assert.Empty(t, listing.Hunts)

	// The owner still sees an intact hunt.
	rec, _ = env.request(t, http.MethodGet, huntPath, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
