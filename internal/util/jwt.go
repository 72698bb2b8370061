package util

import (
	"campus_hunt_backend/internal/model"
	"fmt"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserID uint           `json:"user_id"`
	Role   model.UserRole `json:"role"`
	Email  string         `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, err
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// ParticipantClaims identifies an anonymous student session. Students
// never register an account; the cookie token is all there is.
type ParticipantClaims struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	jwt.RegisteredClaims
}

func NewParticipantClaims() *ParticipantClaims {
	return &ParticipantClaims{
		ParticipantID: uuid.New().String(),
		DisplayName:   fmt.Sprintf("Student_%d", 1000+rand.Intn(9000)),
	}
}

func GenerateParticipantJWT(claims *ParticipantClaims, secret string, expiration time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseParticipantJWT(tokenString, secret string) (*ParticipantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ParticipantClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, err
}

func GetParticipantFromContext(c *gin.Context) *ParticipantClaims {
	p, exists := c.Get("participant")
	if !exists {
		return nil
	}
	claims, ok := p.(*ParticipantClaims)
	if !ok {
		return nil
	}
	return claims
}
