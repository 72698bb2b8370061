package util_test

import (
	"net/http/httptest"
	"testing"

	"campus_hunt_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestQRCodeURL(t *testing.T) {
	assert.Equal(t,
		"http://localhost:8080/student/question/abc123",
		util.QRCodeURL("http://localhost:8080", "abc123"))

	// Trailing slashes on the base must not double up.
	assert.Equal(t,
		"https://hunt.example.edu/student/question/tok",
		util.QRCodeURL("https://hunt.example.edu/", "tok"))
}

func TestQRCodeText(t *testing.T) {
	url := "https://hunt.example.edu/student/question/a-fairly-long-token-value"
	banner := util.QRCodeText(url)

	assert.Contains(t, banner, "SCAVENGER HUNT QR CODE")
	assert.Contains(t, banner, url, "the full URL must appear for manual entry")
}

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestRequestBaseURL(t *testing.T) {
	c := testContext("http://school.example.edu/api/qr/display/x")
	assert.Equal(t, "http://school.example.edu", util.RequestBaseURL(c, ""))

	c.Request.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://school.example.edu", util.RequestBaseURL(c, ""))

	// A configured public base wins over anything in the request.
	assert.Equal(t, "https://tunnel.example.com",
		util.RequestBaseURL(c, "https://tunnel.example.com/"))
}
