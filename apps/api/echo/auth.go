package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

const (
	RoleDirector = "director"
	RoleStaff    = "staff"
	RoleParent   = "parent"

	contextTokenKey = "userToken"
	tokenLifetime   = 12 * time.Hour
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the caller's identity id.
type Claims struct {
	jwt.StandardClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	SchoolID string `json:"school_id"`
}

func (c Claims) Identity() core.Identity {
	return core.Identity{ID: c.Subject, Email: c.Email, Role: c.Role, SchoolID: c.SchoolID}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns the claims of a token issued now for identity.
func NewClaims(conf *core.Config, identity core.Identity) *Claims {
	now := time.Now()
	issuer := conf.Server.JWTIssuer
	if issuer == "" {
		issuer = conf.AppName
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   identity.ID,
			ExpiresAt: now.Add(tokenLifetime).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:    identity.Email,
		Role:     identity.Role,
		SchoolID: identity.SchoolID,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
