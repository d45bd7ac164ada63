package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/utils"
)

// LoginRequest represents a login request. Email also accepts a username.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request. Only admins register
// users, mapping each to the upstream user they act as.
type RegisterRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	Department       string `json:"department"`
	UpstreamUserID   int64  `json:"upstreamUserId"`
	CompanyID        string `json:"companyId"`
	ProductionUnitID string `json:"productionUnitId"`
	Fyear            string `json:"fyear"`
}

var knownRoles = map[string]bool{
	models.RoleAdmin: true, models.RoleKAM: true, models.RolePurchase: true,
	models.RoleOperations: true, models.RoleHOD: true, models.RoleVerticalHead: true,
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := decodeBody(w, req, &loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// 1. Find User
	var user models.UserAuth
	login := strings.TrimSpace(loginReq.Email)
	if err := r.db.WithContext(req.Context()).Where("(email = ? OR username = ?) AND is_active = ?", strings.ToLower(login), login, true).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 2. Check Password
	if !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 3. Update Last Login
	now := time.Now()
	user.LastLogin = &now
	r.db.Model(&user).Update("last_login", now)

	// 4. Generate Tokens
	r.respondTokens(w, http.StatusOK, &user, "")
}

// refresh exchanges a refresh token for a new token pair
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(w, req, &body); err != nil || body.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	claims, err := utils.ValidateToken(body.RefreshToken, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if t, _ := claims["type"].(string); t != "refresh" {
		respondError(w, http.StatusUnauthorized, "Not a refresh token")
		return
	}
	id, _ := claims["id"].(string)

	var user models.UserAuth
	if err := r.db.WithContext(req.Context()).Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "User no longer active")
		return
	}
	r.respondTokens(w, http.StatusOK, &user, "")
}

// register handles user registration
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var regReq RegisterRequest
	if err := decodeBody(w, req, &regReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if regReq.Username == "" || regReq.Email == "" || len(regReq.Password) < 8 {
		respondError(w, http.StatusBadRequest, "username, email and a password of at least 8 characters are required")
		return
	}
	if regReq.Role == "" {
		regReq.Role = models.RoleKAM
	}
	if !knownRoles[regReq.Role] {
		respondError(w, http.StatusBadRequest, "Unknown role "+regReq.Role)
		return
	}

	// 1. Hash Password
	hashedPassword, err := utils.HashPassword(regReq.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	// 2. Create User
	user := models.UserAuth{
		Username:         regReq.Username,
		Email:            strings.ToLower(regReq.Email),
		Password:         hashedPassword,
		Name:             regReq.Name,
		Role:             regReq.Role,
		Department:       regReq.Department,
		UpstreamUserID:   regReq.UpstreamUserID,
		CompanyID:        regReq.CompanyID,
		ProductionUnitID: regReq.ProductionUnitID,
		Fyear:            regReq.Fyear,
		IsActive:         true,
	}

	if err := r.db.WithContext(req.Context()).Create(&user).Error; err != nil {
		respondError(w, http.StatusBadRequest, "Failed to create user (email or username might exist)")
		return
	}

	// 3. Hand back tokens so the admin can verify the login works
	r.respondTokens(w, http.StatusCreated, &user, "User registered successfully")
}

// logout handles user logout
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	// Tokens are stateless; the client drops them
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// me returns the caller as carried by the access token
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	user, ok := session.UserFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (r *Router) respondTokens(w http.ResponseWriter, status int, user *models.UserAuth, message string) {
	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}
	response := map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	}
	if message != "" {
		response["message"] = message
	}
	respondJSON(w, status, response)
}
