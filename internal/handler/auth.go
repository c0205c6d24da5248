package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/config"
	"github.com/avelune/homehub/internal/middleware"
	"github.com/avelune/homehub/internal/repository"
	"github.com/avelune/homehub/internal/utils"
)

// refreshCookie carries the raw refresh token. It is scoped to the
// refresh endpoint so it never travels with ordinary page requests.
const refreshCookie = "refresh"

// AuthHandler bundles dependencies for signup, login and the session
// lifecycle endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Sessions *repository.SessionRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, s *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Sessions: s}
}

// ----- DTOs -----

type signupReq struct {
	FirstName        string `json:"first_name" form:"first_name"`
	LastName         string `json:"last_name" form:"last_name"`
	Email            string `json:"email" form:"email"`
	Password         string `json:"password" form:"password"`
	ConfirmPassword  string `json:"confirm_password" form:"confirm_password"`
	Birthdate        string `json:"birthdate" form:"birthdate"`
	RecoveryQuestion string `json:"recovery_question" form:"recovery_question"`
	RecoveryAnswer   string `json:"recovery_answer" form:"recovery_answer"`
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type forgotReq struct {
	Email string `json:"email" form:"email"`
}

type resetReq struct {
	Email           string `json:"email" form:"email"`
	RecoveryAnswer  string `json:"recovery_answer" form:"recovery_answer"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// wantsJSON reports whether the client is an API consumer rather than
// a browser form post. Form submissions get redirects and re-rendered
// pages; everything else gets JSON.
func wantsJSON(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationJSON)
}

// ----- page renders -----

// SignupPage renders the registration form.
func (h *AuthHandler) SignupPage(c echo.Context) error {
	return c.Render(http.StatusOK, "signup.html", echo.Map{"Form": signupReq{}})
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", echo.Map{})
}

// ForgotPage renders the password recovery form.
func (h *AuthHandler) ForgotPage(c echo.Context) error {
	return c.Render(http.StatusOK, "forgot.html", echo.Map{})
}

// ----- session lifecycle -----

// Signup creates an account, opens a session and sends the client to
// the dashboard.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return h.signupFail(c, http.StatusBadRequest, "invalid body", req)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "":
		return h.signupFail(c, http.StatusBadRequest, "all fields are required", req)
	case req.Password != req.ConfirmPassword:
		return h.signupFail(c, http.StatusBadRequest, "passwords do not match", req)
	case req.RecoveryQuestion == "" || req.RecoveryAnswer == "":
		return h.signupFail(c, http.StatusBadRequest, "recovery question and answer are required", req)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc := repository.Account{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            req.Email,
		Birthdate:        strings.TrimSpace(req.Birthdate),
		RecoveryQuestion: strings.TrimSpace(req.RecoveryQuestion),
	}
	id, err := h.Accounts.Create(ctx, &acc, req.Password, req.RecoveryAnswer, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return h.signupFail(c, http.StatusConflict, "email already registered", req)
		}
		return h.signupFail(c, http.StatusInternalServerError, "could not create account, try again", req)
	}

	if err := h.openSession(ctx, c, id, acc.FirstName); err != nil {
		return h.signupFail(c, http.StatusInternalServerError, "could not open session, try again", req)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": acc.Email})
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *AuthHandler) signupFail(c echo.Context, code int, msg string, req signupReq) error {
	if wantsJSON(c) {
		return c.JSON(code, echo.Map{"error": msg})
	}
	return c.Render(code, "signup.html", echo.Map{"Error": msg, "Form": req}) // re-show the form with what was typed
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return h.loginFail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return h.loginFail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrNotFound) {
			return h.loginFail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return h.loginFail(c, http.StatusInternalServerError, "login failed, try again")
	}
	if !utils.VerifyPassword(acc.PasswordHash, req.Password) {
		return h.loginFail(c, http.StatusUnauthorized, "invalid credentials")
	}

	if err := h.openSession(ctx, c, acc.ID, acc.FirstName); err != nil {
		return h.loginFail(c, http.StatusInternalServerError, "login failed, try again")
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"id": acc.ID, "email": acc.Email})
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *AuthHandler) loginFail(c echo.Context, code int, msg string) error {
	if wantsJSON(c) {
		return c.JSON(code, echo.Map{"error": msg})
	}
	return c.Render(code, "login.html", echo.Map{"Error": msg})
}

// Logout revokes the refresh token behind the refresh cookie, clears
// both cookies and sends the client back to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if ck, err := c.Cookie(refreshCookie); err == nil && ck.Value != "" {
		_ = h.Sessions.RevokeByHash(ctx, utils.HashRefreshRaw(ck.Value))
	}
	clearCookie(c, middleware.SessionCookie, "/")
	clearCookie(c, refreshCookie, "/api/session")

	if wantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusFound, "/login")
}

// Refresh validates the refresh cookie, rotates it and issues a fresh
// session cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(refreshCookie)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
	}
	hash := utils.HashRefreshRaw(ck.Value)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	accountID, err := h.Sessions.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	_ = h.Sessions.RevokeByHash(ctx, hash)

	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	if err := h.openSession(ctx, c, acc.ID, acc.FirstName); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": acc.ID, "email": acc.Email})
}

// Me returns the claims of the current session.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"account_id": id, "name": accountName(c)})
}

// ----- password recovery -----

// Forgot looks up the recovery question for an email. The response is
// deliberately identical in shape whether or not the account exists,
// except that an unknown email yields 404 so the form can say so.
func (h *AuthHandler) Forgot(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrNotFound) {
			if wantsJSON(c) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "no account for that email"})
			}
			return c.Render(http.StatusNotFound, "forgot.html", echo.Map{"Error": "no account for that email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"email": acc.Email, "recovery_question": acc.RecoveryQuestion})
	}
	return c.Render(http.StatusOK, "forgot.html", echo.Map{"Email": acc.Email, "Question": acc.RecoveryQuestion})
}

// ResetPassword verifies the recovery answer and replaces the password
// hash. All active refresh tokens are revoked so stolen sessions die
// with the old password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case email == "" || req.RecoveryAnswer == "" || req.Password == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, answer and password are required"})
	case req.ConfirmPassword != "" && req.Password != req.ConfirmPassword:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	ok, err := h.Accounts.VerifyRecovery(ctx, email, req.RecoveryAnswer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no account for that email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify failed"})
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "recovery answer does not match"})
	}
	if err := h.Accounts.UpdatePassword(ctx, email, req.Password, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password update failed"})
	}
	if acc, err := h.Accounts.GetByEmail(ctx, email); err == nil {
		_ = h.Sessions.RevokeAllForAccount(ctx, acc.ID)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
	}
	return c.Redirect(http.StatusFound, "/login")
}

// openSession mints the JWT + refresh pair and sets both cookies.
func (h *AuthHandler) openSession(ctx context.Context, c echo.Context, accountID uint64, name string) error {
	sess, err := utils.NewSessionToken(h.Cfg.JWTSecret, accountID, name, h.Cfg.SessionTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Sessions.StoreRefresh(ctx, accountID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return err
	}
	setCookie(c, middleware.SessionCookie, sess.Token, "/", sess.Exp)
	setCookie(c, refreshCookie, refresh.Raw, "/api/session", refresh.Exp)
	return nil
}

func setCookie(c echo.Context, name, value, path string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(c echo.Context, name, path string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
