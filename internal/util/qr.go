package util

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestBaseURL derives the externally visible base URL for the
// current request; override wins when configured (tunnels, proxies).
func RequestBaseURL(c *gin.Context, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

// QRCodeURL is the address a student lands on when scanning a
// question's QR code.
func QRCodeURL(baseURL, qrToken string) string {
	return fmt.Sprintf("%s/student/question/%s", strings.TrimRight(baseURL, "/"), qrToken)
}

// QRCodeText renders a printable banner for classrooms without a QR
// image generator at hand.
func QRCodeText(qrURL string) string {
	return fmt.Sprintf(`
╔══════════════════════════════════════╗
║         SCAVENGER HUNT QR CODE       ║
╠══════════════════════════════════════╣
║ URL: %-35s ║
║       %-35s ║
╠══════════════════════════════════════╣
║  Scan this URL with any QR scanner   ║
║  Or visit directly:                  ║
║  %-35s ║
╚══════════════════════════════════════╝
`, head(qrURL, 35), tail(qrURL, 35), qrURL)
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return ""
	}
	return string(r[n:])
}
