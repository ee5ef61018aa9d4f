package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
	"github.com/BruksfildServices01/barber-agenda/internal/validators"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type AuthHandler struct {
	users            storage.UserStore
	tokens           *auth.Tokens
	audit            *audit.Dispatcher
	checkEmailDomain bool
}

func NewAuthHandler(
	users storage.UserStore,
	tokens *auth.Tokens,
	audit *audit.Dispatcher,
	checkEmailDomain bool,
) *AuthHandler {
	return &AuthHandler{
		users:            users,
		tokens:           tokens,
		audit:            audit,
		checkEmailDomain: checkEmailDomain,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || req.Password == "" || email == "" {
		badRequest(c, "Username, password, and email are required")
		return
	}

	if !validators.IsEmail(email) {
		badRequest(c, "Email address is not valid")
		return
	}
	if h.checkEmailDomain && !validators.IsEmailDomainValid(email) {
		httperr.BadRequest(c, codeInvalidEmailDomain, "Email domain does not look valid")
		return
	}

	// only admins may hand out the admin role
	role := RoleUser
	if req.Role == RoleAdmin && c.GetString(middleware.ContextUserRole) == RoleAdmin {
		role = RoleAdmin
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	user := models.User{
		Username:     username,
		PasswordHash: hashed,
		Email:        email,
		Role:         role,
	}

	if err := h.users.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			httperr.Conflict(c, codeUsernameTaken, "Username already exists")
			return
		}
		writeError(c, err)
		return
	}

	token, err := h.tokens.Issue(&user)
	if err != nil {
		writeError(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "user_registered",
		Entity:   "user",
		EntityID: user.Username,
	})

	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(c, "Username and password are required")
		return
	}

	ctx := c.Request.Context()

	user, err := h.users.GetUser(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httperr.Unauthorized(c, codeInvalidCredentials, "Invalid username or password")
			return
		}
		writeError(c, err)
		return
	}

	ok, upgrade := auth.CheckPassword(user.PasswordHash, req.Password)
	if !ok {
		httperr.Unauthorized(c, codeInvalidCredentials, "Invalid username or password")
		return
	}

	if upgrade {
		if hashed, err := auth.HashPassword(req.Password); err == nil {
			user.PasswordHash = hashed
			if err := h.users.UpdateUser(ctx, user); err != nil {
				log.Printf("auth: password upgrade for %s failed: %v", user.Username, err)
			}
		}
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}
