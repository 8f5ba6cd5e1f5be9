package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"WaveFM/core/auth"
	"WaveFM/logger"
	"WaveFM/model"
	"WaveFM/repository"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest represents the login request body. Login accepts a username
// or an email address.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterHandler creates an account and returns a session token.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	userID, err := h.repos.Users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			respondError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		logger.Error("Failed to create user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID = userID

	token, err := h.issuer.GenerateToken(userID, user.Username)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("User registered",
		logger.Int64("userId", userID),
		logger.String("username", user.Username),
	)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created successfully",
		"user":    user,
		"token":   token,
	})
}

// LoginHandler authenticates by username or email and returns a token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Login == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Login and password are required")
		return
	}

	user, err := h.repos.Users.GetUserByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid login or password")
			return
		}
		logger.Error("Failed to look up user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("Failed login attempt", logger.String("login", req.Login))
		respondError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	if err := h.repos.Users.TouchLastLogin(r.Context(), user.ID); err != nil {
		logger.Warn("Failed to update last login", logger.Int64("userId", user.ID), logger.ErrorField(err))
	}

	token, err := h.issuer.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("User logged in", logger.Int64("userId", user.ID), logger.String("username", user.Username))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// ProfileHandler returns the authenticated user's account record.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	user, err := h.repos.Users.GetUserByID(r.Context(), caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Error("Failed to load profile", logger.Int64("userId", caller.UserID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ListUsersHandler returns every registered account without password hashes.
func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.repos.Users.ListUsers(r.Context())
	if err != nil {
		logger.Error("Failed to list users", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}
