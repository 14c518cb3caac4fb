package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/auth"
	"smartbreath-backend/internal/store"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login: verifies credentials and issues a token.
// A wrong username and a wrong password return the same message.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.VerifyPassword(req.Password, user.Password) {
		writeError(c, apperr.Unauthorized("invalid username or password"))
		return
	}

	token, err := auth.IssueToken(user.ID, user.Username, "",
		h.authCfg.JWTSecret, time.Duration(h.authCfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		writeError(c, apperr.Unexpected("issuing token failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

type registerRequest struct {
	FirstName string  `json:"firstName" binding:"required"`
	LastName  string  `json:"lastName" binding:"required"`
	Username  string  `json:"username" binding:"required"`
	Email     string  `json:"email" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	DOB       string  `json:"dob" binding:"required"`
	Weight    float64 `json:"weight" binding:"required"`
	Height    float64 `json:"height" binding:"required"`
	Gender    string  `json:"gender" binding:"required"`
}

// Register handles POST /auth/register and POST /users: public account
// creation.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Password) < 8 {
		writeError(c, apperr.Validation("password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.authCfg.BcryptCost)
	if err != nil {
		writeError(c, apperr.Unexpected("hashing password failed", err))
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), store.CreateUserInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DOB:          req.DOB,
		Weight:       req.Weight,
		Height:       req.Height,
		Gender:       req.Gender,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
