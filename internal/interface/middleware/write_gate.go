package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/member-registry/pkg/helpers"
	"github.com/oksasatya/member-registry/pkg/response"
)

const (
	CtxActorKey  = "actor"
	HeaderAPIKey = "x-api-key"
	HeaderActor  = "x-actor"
	DefaultActor = "api"
)

// GateConfig lists the accepted credentials. Any field left empty disables
// that credential; with all empty every write is refused.
type GateConfig struct {
	APIKey     string
	APIKeyHash string // bcrypt
	JWT        *helpers.JWTManager
}

// WriteGate admits a request carrying a valid bearer token or API key and
// records the actor for audit fields. The actor is the token subject, else
// the x-actor header, else "api".
func WriteGate(cfg GateConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, ok := bearer(c); ok {
			if cfg.JWT == nil {
				response.Error[any](c, http.StatusUnauthorized, "bearer tokens are not accepted", nil)
				return
			}
			claims, err := cfg.JWT.Parse(tok)
			if err != nil {
				response.Error[any](c, http.StatusUnauthorized, "invalid bearer token", nil)
				return
			}
			c.Set(CtxActorKey, claims.Subject)
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if key == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing credentials", nil)
			return
		}
		if !cfg.keyMatches(key) {
			response.Error[any](c, http.StatusUnauthorized, "invalid api key", nil)
			return
		}
		actor := strings.TrimSpace(c.GetHeader(HeaderActor))
		if actor == "" {
			actor = DefaultActor
		}
		c.Set(CtxActorKey, actor)
		c.Next()
	}
}

func (g GateConfig) keyMatches(key string) bool {
	if g.APIKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(g.APIKey)) == 1 {
		return true
	}
	return g.APIKeyHash != "" && helpers.CompareHashAndSecret(g.APIKeyHash, key)
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// Actor returns the audit actor set by WriteGate, or "api".
func Actor(c *gin.Context) string {
	if a := c.GetString(CtxActorKey); a != "" {
		return a
	}
	return DefaultActor
}
