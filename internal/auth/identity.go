package auth

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var GUEST_COOKIE_NAME = "____lc_guest"

const GuestCookieTTL = 7 * 24 * time.Hour

var ErrNoIdentity = errors.New("no authenticated or guest identity found")

// Identity is the cart owner for one session: an authenticated user id from
// the bearer token, or a guest id from the guest cookie. Guest and user carts
// live behind different upstream endpoints and are never merged here.
type Identity struct {
	UserID string `json:"userId"`
	Guest  bool   `json:"guest"`
}

type JWTClaim struct {
	Id        string `json:"id"`
	LoginName string `json:"login_name"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessToken validates a signed access token and returns its claims.
func ParseAccessToken(signedToken, secret string) (*JWTClaim, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&JWTClaim{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaim)
	if !ok || !token.Valid {
		return nil, errors.New("couldn't parse claims")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireIdentity resolves the caller's identity from the bearer token or the
// guest cookie. It never touches the network: when neither is present the
// operation short-circuits with ErrNoIdentity before any upstream call.
func RequireIdentity(c *gin.Context, secret string) (Identity, error) {
	if token := bearerToken(c); token != "" {
		claims, err := ParseAccessToken(token, secret)
		if err != nil {
			return Identity{}, errors.Wrap(err, "invalid access token")
		}
		return Identity{UserID: claims.Id}, nil
	}

	if guestID, err := c.Cookie(GUEST_COOKIE_NAME); err == nil && guestID != "" {
		return Identity{UserID: guestID, Guest: true}, nil
	}

	return Identity{}, ErrNoIdentity
}

// EnsureIdentity is RequireIdentity plus guest bootstrap: a caller with no
// session at all gets a fresh guest identity cookie. Used by add-to-cart, the
// first operation a brand-new visitor can perform.
func EnsureIdentity(c *gin.Context, secret string) Identity {
	if identity, err := RequireIdentity(c, secret); err == nil {
		return identity
	}

	guestID := primitive.NewObjectID().Hex()
	c.SetCookie(GUEST_COOKIE_NAME, guestID, int(GuestCookieTTL.Seconds()), "/", "", false, true)
	return Identity{UserID: guestID, Guest: true}
}
