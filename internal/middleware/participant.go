package middleware

import (
	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ParticipantMiddleware gives every student a session without an
// account: the first request gets a signed cookie carrying a fresh
// participant id and an auto-generated display name, later requests
// reuse it. Expired or tampered cookies are silently replaced.
func ParticipantMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claims *util.ParticipantClaims

		if cookie, err := c.Cookie(cfg.Session.CookieName); err == nil && cookie != "" {
			if parsed, err := util.ParseParticipantJWT(cookie, cfg.JWT.Secret); err == nil {
				claims = parsed
			}
		}

		if claims == nil {
			claims = util.NewParticipantClaims()
			token, err := util.GenerateParticipantJWT(claims, cfg.JWT.Secret, cfg.Session.TTL)
			if err != nil {
				util.LogInternalError(c, err)
				c.Abort()
				return
			}
			SetParticipantCookie(c, cfg, token)
		}

		c.Set("participant", claims)
		c.Next()
	}
}

// SetParticipantCookie writes the session cookie the way the browser
// client expects: HttpOnly, SameSite=Lax, Secure in release mode.
func SetParticipantCookie(c *gin.Context, cfg *config.Config, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		cfg.Session.CookieName,
		token,
		int(cfg.Session.TTL.Seconds()),
		"/",
		"",
		cfg.Server.Mode == "release",
		true,
	)
}

// ClearParticipantCookie drops the session cookie on logout.
func ClearParticipantCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Session.CookieName, "", -1, "/", "", cfg.Server.Mode == "release", true)
}
