package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/utils"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session"

const (
	sessionKey   = "session"
	sessionIDKey = "session_id"
)

// Sessions issues and resolves server-side sessions.
type Sessions struct {
	Store  *utils.SessionStore
	Secret []byte
}

// Start stores sc, sets the session cookie and returns the signed token so
// non-browser clients can send it as a bearer token.
func (s *Sessions) Start(c *gin.Context, sc models.SessionContext) (string, error) {
	id, expires := s.Store.Create(sc)
	token, err := utils.SignSessionToken(s.Secret, id, expires)
	if err != nil {
		s.Store.Delete(id)
		return "", err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.Store.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	return token, nil
}

// End drops the session of the request, if any, and clears the cookie.
func (s *Sessions) End(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if id, err := utils.ParseSessionToken(s.Secret, token); err == nil {
			s.Store.Delete(id)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}

// Lookup resolves the session of the request without aborting it.
func (s *Sessions) Lookup(c *gin.Context) (models.SessionContext, string, bool) {
	token := sessionToken(c)
	if token == "" {
		return models.SessionContext{}, "", false
	}
	id, err := utils.ParseSessionToken(s.Secret, token)
	if err != nil {
		return models.SessionContext{}, "", false
	}
	sc, ok := s.Store.Get(id)
	return sc, id, ok
}

// AuthMiddleware rejects requests without a live session and stores the
// session context for handlers.
func AuthMiddleware(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, id, ok := s.Lookup(c)
		if !ok {
			utils.RespondError(c, utils.ErrUnauthenticated)
			c.Abort()
			return
		}

		c.Set(sessionKey, sc)
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// CurrentSession returns the session set by AuthMiddleware.
func CurrentSession(c *gin.Context) (models.SessionContext, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.SessionContext{}, false
	}
	sc, ok := v.(models.SessionContext)
	return sc, ok
}

// sessionToken reads the cookie, then the Authorization header, then the
// token query parameter used by websocket clients.
func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}
