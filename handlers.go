package main

import (
	"errors"
	"net/http"
	"strconv"

	"memberhub/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRoutes(r *gin.Engine, svc *SessionService, cfg *Config) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/members/signup", signupHandler(svc))
	r.POST("/members/login", loginHandler(svc, cfg))
	r.POST("/members/refresh", refreshHandler(svc, cfg))
	r.POST("/members/logout", logoutHandler(svc, cfg))
	r.GET("/members/validate/student-number", validateStudentNumberHandler(svc))
	r.GET("/members/validate/email", validateEmailHandler(svc))

	// gated by the MEMBER permission (installed via installGates)
	r.GET("/members/me", meHandler)
	r.PUT("/members/me", updateMeHandler(svc))
	r.PUT("/members/password", editPasswordHandler(svc))
	r.DELETE("/members/me", withdrawHandler(svc, cfg))

	// gated by the ADMIN permission
	r.GET("/admin/members", listMembersHandler(svc))
}

func signupHandler(svc *SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			StudentNumber int64  `json:"student_number" binding:"required"`
			Email         string `json:"email"`
			Password      string `json:"password" binding:"required,min=6"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m, err := svc.SignUp(req.StudentNumber, req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": m.ID, "student_number": m.StudentNumber})
	}
}

func loginHandler(svc *SessionService, cfg *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			StudentNumber int64  `json:"student_number" binding:"required"`
			Password      string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_, _, pair, err := svc.Login(req.StudentNumber, req.Password)
		if err != nil {
			loginTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		loginTotal.WithLabelValues("success").Inc()
		setAuthCookies(c, cfg, pair)
		c.JSON(http.StatusOK, gin.H{
			"message":       "login successful",
			"token":         pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		})
	}
}

// refreshHandler rotates explicitly: refresh token from the cookie or, as a
// fallback, from the request body.
func refreshHandler(svc *SessionService, cfg *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieRefreshToken)
		if err != nil || raw == "" {
			var req struct {
				RefreshToken string `json:"refresh_token"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token required"})
				return
			}
			raw = req.RefreshToken
		}
		_, _, pair, err := svc.ReLogin(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
			return
		}
		tokenRefreshTotal.Inc()
		setAuthCookies(c, cfg, pair)
		c.JSON(http.StatusOK, gin.H{
			"token":         pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		})
	}
}

func logoutHandler(svc *SessionService, cfg *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(cookieRefreshToken); err == nil && raw != "" {
			svc.Logout(raw)
		}
		clearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func meHandler(c *gin.Context) {
	claims, ok := CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":        claims.UserID,
		"student_number": claims.StudentNumber,
		"roles":          claims.Roles,
		"permissions":    claims.Permissions,
	})
}

func updateMeHandler(svc *SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req struct {
			Email *string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m, err := svc.members.FindByUserID(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "member not found"})
			return
		}
		if req.Email != nil {
			if _, err := svc.members.FindByEmail(*req.Email); err == nil {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
		}
		models.MemberUpdate{Email: req.Email}.Apply(m)
		if err := svc.members.Save(m); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "member updated"})
	}
}

func editPasswordHandler(svc *SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req struct {
			NewPassword string `json:"new_password" binding:"required,min=6"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.EditPassword(claims.StudentNumber, req.NewPassword); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

// withdrawHandler deletes the caller's credential and every refresh row it
// owns. Ownership is proven against the access-token cookie before the
// destructive delete; a valid token for another user is rejected with a
// distinct message.
func withdrawHandler(svc *SessionService, cfg *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		raw, err := c.Cookie(cookieAccessToken)
		if err != nil || raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, err := svc.ValidateOwnership(raw, claims.UserID); err != nil {
			if errors.Is(err, ErrTokenOwnerMismatch) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token owner mismatch"})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if err := svc.Delete(claims.UserID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "member not found"})
			return
		}
		clearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{"message": "member withdrawn"})
	}
}

func validateStudentNumberHandler(svc *SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sn, err := strconv.ParseInt(c.Query("value"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a number"})
			return
		}
		_, err = svc.members.FindByStudentNumber(sn)
		c.JSON(http.StatusOK, gin.H{"available": errors.Is(err, ErrMemberNotFound)})
	}
}

func validateEmailHandler(svc *SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("value")
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value required"})
			return
		}
		_, err := svc.members.FindByEmail(email)
		c.JSON(http.StatusOK, gin.H{"available": errors.Is(err, ErrMemberNotFound)})
	}
}

func listMembersHandler(svc *SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := svc.members.List(200)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		out := make([]gin.H, 0, len(members))
		for _, m := range members {
			out = append(out, gin.H{
				"id":             m.ID,
				"student_number": m.StudentNumber,
				"email":          m.Email,
				"roles":          models.RoleNames(m.Roles()),
				"permissions":    models.PermissionNames(m.Permissions()),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}
