package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nom      string `json:"last_name"`
	Prenom   string `json:"first_name"`
}

// Register: POST /auth/register – creates a CLIENT account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{
			"email": "required", "password": "min_length_8",
		})
		return
	}
	var count int64
	h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	var clientRole models.Role
	if err := h.DB.Where("name = ?", "CLIENT").First(&clientRole).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	u := models.User{Email: req.Email, Password: string(hash), Nom: req.Nom, Prenom: req.Prenom, Roles: []models.Role{clientRole}}
	if err := h.DB.Create(&u).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	auth.CreateSession(w, u.ID)
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": u.ID, "email": u.Email, "roles": u.RoleNames()})
}

// Login: POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	var u models.User
	err := h.DB.Preload("Roles").Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		(err == nil && bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	auth.CreateSession(w, u.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email, "roles": u.RoleNames()})
}

// Me: GET /auth/me – current actor's identity and role set.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var u models.User
	if err := h.DB.Preload("Roles").First(&u, actor.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id": u.ID, "email": u.Email,
		"first_name": u.Prenom, "last_name": u.Nom,
		"roles": u.RoleNames(),
	})
}

// Logout: POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
