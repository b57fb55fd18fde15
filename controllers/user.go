package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"farm-store/middleware"
	"farm-store/models"
	"farm-store/repository"
	"farm-store/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserController handles signup, login and the caller's profile
type UserController struct {
	Profiles repository.ProfileRepository
	Tokens   *utils.TokenIssuer
	Sessions *middleware.SessionManager
	Logger   *zap.Logger
}

// NewUserController creates a new UserController
func NewUserController(profiles repository.ProfileRepository, tokens *utils.TokenIssuer, sessions *middleware.SessionManager, logger *zap.Logger) *UserController {
	return &UserController{Profiles: profiles, Tokens: tokens, Sessions: sessions, Logger: logger}
}

type signupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	FirstName       string `json:"first_name" validate:"min=2"`
	LastName        string `json:"last_name" validate:"min=2"`
	Phone           string `json:"phone" validate:"min=10"`
}

var signupMessages = map[string]string{
	"password":         "Password must be at least 6 characters",
	"password_confirm": "Passwords do not match",
}

type authResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// Register creates an account with the user role and signs it in
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if fields := utils.ValidateStruct(req, signupMessages); fields != nil {
		validationFailed(w, fields)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}
	profile := &models.Profile{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      models.RoleUser,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id, err := uc.Profiles.CreateProfile(ctx, profile)
	if errors.Is(err, repository.ErrDuplicate) {
		http.Error(w, "User already exists", http.StatusConflict)
		return
	}
	if err != nil {
		storageError(w, uc.Logger, err, "Error creating user")
		return
	}
	profile.ID = id
	uc.Logger.Info("profile created", zap.String("user_id", id))

	uc.signIn(w, r, http.StatusCreated, profile)
}

// Login authenticates with email and password
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &creds); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	profile, err := uc.Profiles.FindProfileByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		storageError(w, uc.Logger, err, "Error fetching user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(creds.Password)); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	uc.signIn(w, r, http.StatusOK, profile)
}

func (uc *UserController) signIn(w http.ResponseWriter, r *http.Request, status int, profile *models.Profile) {
	token, err := uc.Tokens.Issue(profile)
	if err != nil {
		http.Error(w, "Error generating token", http.StatusInternalServerError)
		return
	}
	if err := uc.Sessions.Start(w, r, token, profile); err != nil {
		uc.Logger.Error("session not saved", zap.Error(err))
		http.Error(w, "Error starting session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, authResponse{Token: token, Profile: profile})
}

// Logout clears the session cookie and the cached role
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := uc.Sessions.End(w, r); err != nil {
		uc.Logger.Error("session not cleared", zap.Error(err))
		http.Error(w, "Error ending session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	session := middleware.FromContext(r.Context())
	if !session.Authenticated() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	profile, err := uc.Profiles.FindProfileByID(ctx, session.Claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		storageError(w, uc.Logger, err, "Error fetching user")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AuthPage is where the admin guard sends anonymous callers
func (uc *UserController) AuthPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sign in to continue", "login": "/login"})
}

// UnauthorizedPage is where the admin guard sends signed in non-admins
func (uc *UserController) UnauthorizedPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusForbidden, map[string]string{"message": "You do not have access to this page"})
}
