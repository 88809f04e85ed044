package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/middleware"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
	"github.com/taihuy1/task-managemet-thesis/internal/services"
	"github.com/taihuy1/task-managemet-thesis/internal/utils"
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewAuthHandler(userService services.UserService, authService services.AuthService, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

func (h *AuthHandler) signAccessToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(middleware.JWTKey())
}

// @Summary      Log in
// @Description  Authenticates a user and returns access and refresh tokens
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]interface{}
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login][bind][err] %v", err)
		respondBadRequest(c, err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	log.Printf("[auth][login] attempt email=%q", email)

	user, err := h.userService.GetByEmail(c.Request.Context(), email)
	if err != nil || user == nil {
		log.Printf("[auth][login] user not found email=%q err=%v", email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	if !h.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)) {
		log.Printf("[auth][login] password mismatch userID=%d", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	accessToken, err := h.signAccessToken(user)
	if err != nil {
		log.Printf("[auth][login] sign access token failed userID=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate access token"})
		return
	}

	// Refresh (opaque) -> stored on the user row
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		log.Printf("[auth][login] new refresh token failed userID=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate refresh token"})
		return
	}
	rtExp := time.Now().Add(h.refreshTTL)
	if err := h.userService.UpdateRefresh(c.Request.Context(), user.ID, rt, rtExp); err != nil {
		log.Printf("[auth][login] store refresh token failed userID=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to store refresh token"})
		return
	}

	log.Printf("[auth][login] success userID=%d role=%s", user.ID, user.Role)
	respondOK(c, gin.H{
		"user": user,
		"tokens": gin.H{
			"access_token":  accessToken,
			"refresh_token": rt,
		},
	}, "Login successful")
}

// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][register][bind][err] %v", err)
		respondBadRequest(c, err.Error())
		return
	}

	role, err := authz.ParseRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if err != nil {
		respondBadRequest(c, "role must be AUTHOR or SOLVER")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		respondServiceError(c, err, "auth.register")
		return
	}
	log.Printf("[auth][register][ok] userID=%d email=%q role=%s", user.ID, user.Email, user.Role)
	respondCreated(c, user, "Registration successful")
}

// POST /refresh — rotates the opaque refresh token and issues a new access
// token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	old := strings.TrimSpace(req.RefreshToken)

	user, err := h.userService.GetByRefreshToken(c.Request.Context(), old)
	if err != nil || user == nil || user.RefreshToken == nil || user.RefreshExpiresAt == nil || user.RefreshRevoked {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid refresh token"})
		return
	}
	if time.Now().After(*user.RefreshExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Refresh token expired"})
		return
	}

	newRT, err := utils.NewRefreshToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to rotate refresh token"})
		return
	}
	newExp := time.Now().Add(h.refreshTTL)
	rotated, err := h.userService.RotateRefresh(c.Request.Context(), old, newRT, newExp)
	if err != nil || rotated == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid refresh token"})
		return
	}

	accessToken, err := h.signAccessToken(rotated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate access token"})
		return
	}

	respondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": newRT,
	}, "Token refreshed")
}

// POST /logout — revokes the stored refresh token. The access token stays
// valid until it expires; there is no blacklist.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	if err := h.userService.ClearRefresh(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err, "auth.logout")
		return
	}
	log.Printf("[auth][logout][ok] userID=%d", userID)
	respondOK(c, nil, "Logged out successfully")
}
