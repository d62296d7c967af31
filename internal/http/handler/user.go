package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/http/middleware"
	"github.com/ErlanBelekov/auth-server/internal/usecase"
	"github.com/gin-gonic/gin"
)

// userUsecaser is the subset of UserUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type userUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	RecoverPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, recoveryToken, newPassword string) error
	Query(ctx context.Context, caller *domain.User, email string) (*domain.User, error)
	Update(ctx context.Context, caller *domain.User, email string, in usecase.UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, caller *domain.User, email string) error
	List(ctx context.Context, caller *domain.User, page, perPage int) ([]*domain.User, int, error)
}

type UserHandler struct {
	users  userUsecaser
	logger *slog.Logger
}

func NewUserHandler(users userUsecaser, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With("component", "user_handler"),
	}
}

// profileResponse is the public view of a user; the password never leaves the server.
type profileResponse struct {
	Email       string `json:"email"`
	Fullname    string `json:"fullname"`
	PhoneNumber string `json:"phone_number"`
	Photo       string `json:"photo"`
	Admin       bool   `json:"admin"`
}

func toProfile(u *domain.User) profileResponse {
	return profileResponse{
		Email:       u.Email,
		Fullname:    u.Fullname,
		PhoneNumber: u.PhoneNumber,
		Photo:       u.Photo,
		Admin:       u.Admin,
	}
}

type registerRequest struct {
	Email       string `json:"email"        form:"email"        binding:"required"`
	Password    string `json:"password"     form:"password"     binding:"required"`
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"required"`
	Fullname    string `json:"fullname"     form:"fullname"     binding:"required"`
	Photo       string `json:"photo"        form:"photo"`
}

// POST /user
// Accepts JSON or form-encoded bodies.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Register(ctx, usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Fullname:    req.Fullname,
		Photo:       req.Photo,
	})
	if err != nil {
		respondError(ctx, c, h.logger, "register user", err)
		return
	}

	c.JSON(http.StatusOK, toProfile(user))
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /user/login
// Returns {"login_token": "...", "user": {...}}.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	tok, user, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, c, h.logger, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"login_token": tok, "user": toProfile(user)})
}

// GET /user/login
// Returns the profile the bearer token belongs to.
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, toProfile(middleware.Caller(c)))
}

type recoverRequest struct {
	Email string `json:"email" binding:"required"`
}

// POST /user/recover_password
// The recovery token is only ever delivered by email.
func (h *UserHandler) RecoverPassword(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.users.RecoverPassword(ctx, req.Email); err != nil {
		respondError(ctx, c, h.logger, "recover password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recovery email sent"})
}

type newPasswordRequest struct {
	Email       string `json:"email"        binding:"required"`
	Token       string `json:"token"        binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// POST /user/new_password
func (h *UserHandler) NewPassword(c *gin.Context) {
	var req newPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.users.ResetPassword(ctx, req.Email, req.Token, req.NewPassword); err != nil {
		respondError(ctx, c, h.logger, "reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func targetEmail(c *gin.Context) (string, bool) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingEmail})
		return "", false
	}
	return email, true
}

// GET /user?email=
func (h *UserHandler) Query(c *gin.Context) {
	email, ok := targetEmail(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Query(ctx, middleware.Caller(c), email)
	if err != nil {
		respondError(ctx, c, h.logger, "query user", err)
		return
	}

	c.JSON(http.StatusOK, toProfile(user))
}

type updateRequest struct {
	Fullname    *string `json:"fullname"`
	PhoneNumber *string `json:"phone_number"`
	Photo       *string `json:"photo"`
	Password    *string `json:"password"`
}

// PUT /user?email=
// Only the fields present in the body change.
func (h *UserHandler) Update(c *gin.Context) {
	email, ok := targetEmail(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Update(ctx, middleware.Caller(c), email, usecase.UpdateInput{
		Fullname:    req.Fullname,
		PhoneNumber: req.PhoneNumber,
		Photo:       req.Photo,
		Password:    req.Password,
	})
	if err != nil {
		respondError(ctx, c, h.logger, "update user", err)
		return
	}

	c.JSON(http.StatusOK, toProfile(user))
}

// DELETE /user?email=
func (h *UserHandler) Delete(c *gin.Context) {
	email, ok := targetEmail(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.users.Delete(ctx, middleware.Caller(c), email); err != nil {
		respondError(ctx, c, h.logger, "delete user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

type listQuery struct {
	Page         *int `form:"page"           binding:"required,min=0"`
	UsersPerPage *int `form:"users_per_page" binding:"required,min=1"`
}

// GET /registered_users?page=&users_per_page=
// Returns {"results": [...], "pages": n}. Admin only.
func (h *UserHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	users, pages, err := h.users.List(ctx, middleware.Caller(c), *q.Page, *q.UsersPerPage)
	if err != nil {
		respondError(ctx, c, h.logger, "list users", err)
		return
	}

	results := make([]profileResponse, 0, len(users))
	for _, u := range users {
		results = append(results, toProfile(u))
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "pages": pages})
}
