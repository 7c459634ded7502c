package main

import (
	"net/http"

	"memberhub/models"

	"github.com/gin-gonic/gin"
)

const (
	cookieAccessToken  = "ACCESS_TOKEN"
	cookieRefreshToken = "REFRESH_TOKEN"

	ctxClaimsKey  = "authClaims"
	ctxRefreshKey = "authRefresh"
)

// globalExcludedPaths is unioned into every gate's excluded set at install
// time, regardless of what the individual permission tag declares.
var globalExcludedPaths = []string{
	"/members/signup",
	"/members/login",
	"/members/refresh",
	"/members/validate/**",
	"/mail/**",
	"/metrics",
	"/healthz",
}

// CurrentClaims returns the identity the gate attached to this request.
func CurrentClaims(c *gin.Context) (*AccessTokenClaims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*AccessTokenClaims)
	return claims, ok
}

// CurrentRefreshToken returns the refresh row attached by a lazy rotation.
func CurrentRefreshToken(c *gin.Context) (*models.RefreshToken, bool) {
	v, ok := c.Get(ctxRefreshKey)
	if !ok {
		return nil, false
	}
	rt, ok := v.(*models.RefreshToken)
	return rt, ok
}

// installGates installs one gate middleware per permission tag with a
// non-empty protected set. Tags declaring no protected patterns are inert.
// Disabled entirely by AUTH_GATE_ENABLED=false.
func installGates(r *gin.Engine, svc *SessionService, cfg *Config) {
	if !cfg.GateEnabled {
		logger.Warn("auth gate layer disabled by configuration")
		return
	}
	for _, p := range models.AllPermissions() {
		protected, excluded := p.PathSpec()
		if len(protected) == 0 {
			continue
		}
		excluded = append(append([]string{}, globalExcludedPaths...), excluded...)
		r.Use(permissionGate(svc, cfg, p, protected, excluded))
	}
}

// permissionGate resolves the caller identity for paths the tag protects and
// rejects with 401 when no valid identity carries the tag. Resolution
// short-circuits at the first success: attached claims, then the access
// cookie, then a lazy rotation via the refresh cookie. Any parse or rotation
// failure is treated as "no token".
func permissionGate(svc *SessionService, cfg *Config, perm models.Permission, protected, excluded []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !models.MatchAnyPath(protected, path) || models.MatchAnyPath(excluded, path) {
			c.Next()
			return
		}

		claims, _ := CurrentClaims(c)

		if claims == nil {
			if raw, err := c.Cookie(cookieAccessToken); err == nil && raw != "" {
				if parsed, perr := svc.ParseAccessToken(raw); perr == nil {
					claims = parsed
					c.Set(ctxClaimsKey, parsed)
				}
			}
		}

		if claims == nil {
			if _, attached := CurrentRefreshToken(c); !attached {
				if raw, err := c.Cookie(cookieRefreshToken); err == nil && raw != "" {
					if newClaims, rt, pair, rerr := svc.ReLogin(raw); rerr == nil {
						claims = newClaims
						c.Set(ctxClaimsKey, newClaims)
						c.Set(ctxRefreshKey, rt)
						setAuthCookies(c, cfg, pair)
						tokenRefreshTotal.Inc()
					}
				}
			}
		}

		if claims == nil {
			gateRejections.WithLabelValues("unauthenticated").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !claims.HasPermission(perm) {
			gateRejections.WithLabelValues("forbidden").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// setAuthCookies writes both tokens as httpOnly path=/ cookies with maxAge
// equal to each token's configured TTL in seconds.
func setAuthCookies(c *gin.Context, cfg *Config, pair TokenPair) {
	c.SetCookie(cookieAccessToken, pair.AccessToken, int(cfg.AccessTokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
	c.SetCookie(cookieRefreshToken, pair.RefreshToken, int(cfg.RefreshTokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
}

// clearAuthCookies expires both auth cookies on the response.
func clearAuthCookies(c *gin.Context, cfg *Config) {
	c.SetCookie(cookieAccessToken, "", -1, "/", "", cfg.CookieSecure, true)
	c.SetCookie(cookieRefreshToken, "", -1, "/", "", cfg.CookieSecure, true)
}
