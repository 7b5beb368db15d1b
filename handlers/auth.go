package handlers

import (
	"net/http"
	"sistema_pip_go/config"
	"sistema_pip_go/db"
	"sistema_pip_go/middleware"
	"sistema_pip_go/models"
	"sistema_pip_go/services"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func init() {
	// Generate a real dummy hash at startup to ensure consistent timing
	hash, _ := services.HashPassword("dummy_password_for_timing_mitigation")
	if hash != "" {
		globalDummyHash = hash
	}
}

// Package level variable to hold the dummy hash
var globalDummyHash string = "$2a$10$X7.G.t8./.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t" // Fallback

// LoginPostHandler handles the login form submission
func LoginPostHandler(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	if username == "" || password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Usuário e senha são obrigatórios")
	}

	var user models.User
	err := db.DB.Where("username = ?", username).First(&user).Error
	if err != nil {
		// Timing attack mitigation: always run a bcrypt comparison even
		// when the username does not exist.
		services.VerifyPassword(globalDummyHash, password)
		return echo.NewHTTPError(http.StatusUnauthorized, "Usuário ou senha inválidos")
	}

	if !services.VerifyPassword(user.Password, password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Usuário ou senha inválidos")
	}

	if !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "Conta desativada")
	}

	ipAddress := c.RealIP()
	userAgent := c.Request().UserAgent()

	session, err := services.CreateSession(db.DB, user.ID, ipAddress, userAgent)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	cfg := c.Get("config").(*config.Config)
	isProduction := cfg.Environment == "production"

	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(services.DefaultSessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	now := time.Now()
	user.LastLoginAt = &now
	db.DB.Save(&user)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"id":       user.ID,
			"name":     user.Name,
			"username": user.Username,
			"role":     user.Role,
		},
		"redirect": "/dashboard",
	})
}

// LogoutHandler handles user logout
func LogoutHandler(c echo.Context) error {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err == nil {
		services.DeleteSession(db.DB, cookie.Value)
	}

	middleware.ClearSessionCookie(c)

	return c.Redirect(http.StatusSeeOther, "/login")
}

// GetCurrentUserHandler returns the current user info as JSON
func GetCurrentUserHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        user.ID,
		"name":      user.Name,
		"username":  user.Username,
		"role":      user.Role,
		"can_write": user.CanWrite(),
	})
}
