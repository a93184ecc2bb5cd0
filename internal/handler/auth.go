package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/config"
	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/queue"
	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/utils"
)

// emailTokenTTL is how long an email verification link stays valid.
const emailTokenTTL = 24 * time.Hour

// authStore is the slice of the user repository the auth lane uses.
type authStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetVerified(ctx context.Context, id string) error
}

// AuthHandler bundles dependencies for the signup/signin endpoints.
// Mail publishes outbound messages; it defaults to the broker
// publisher and is swappable in tests.
type AuthHandler struct {
	Cfg	  config.Config
	Users authStore
	Mail  func(ctx context.Context, msg queue.MailMessage) error
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Mail: queue.PublishMail}
}

// ----- DTOs -----

type registerReq struct {
	Name			string `json:"name"`
	Email			string `json:"email"`
	Password		string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
type loginReq struct {
	Email	 string `json:"email"`
	Password string `json:"password"`
}
type googleReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
type emailReq struct {
	Email string `json:"email"`
}

type tokenPart struct {
	Token	string	  `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID		 string `json:"_id"`
	Name	 string `json:"name"`
	Email	 string `json:"email"`
	Verified bool	`json:"verified"`
}
type authResp struct {
	User   userPart	 `json:"user"`
	Access tokenPart `json:"access"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Verified: u.Verified}
}

// Register creates an unverified user and queues the verification
// email.  The first session's access token is returned immediately;
// subsequent password logins are blocked until the email is verified.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if req.Password != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return httpError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	now := time.Now().UTC()
	u := &model.User{
		ID:		   uuid.NewString(),
		Name:	   req.Name,
		Email:	   req.Email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		return httpError(c, err)
	}

	h.queueVerificationMail(c, u)

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Name, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, authResp{
		User:	toUserPart(u),
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil || u.GoogleUser || !utils.VerifyPassword(u.Password, req.Password) {
		// One message for all failure shapes; no account probing.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.Verified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "please verify your email to login"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Name, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:	toUserPart(u),
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// GoogleSignin signs a user in on the strength of a Google-verified
// email, creating the account on first contact.  Google accounts have
// no local password and are verified from the start.
func (h *AuthHandler) GoogleSignin(c echo.Context) error {
	var req googleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		now := time.Now().UTC()
		u = &model.User{
			ID:			uuid.NewString(),
			Name:		req.Name,
			Email:		req.Email,
			Verified:	true,
			GoogleUser: true,
			CreatedAt:	now,
			UpdatedAt:	now,
		}
		if err := h.Users.Create(ctx, u); err != nil {
			return httpError(c, err)
		}
	} else if !u.GoogleUser {
		// A password account under this address must never be
		// reachable through the google lane.
		return c.JSON(http.StatusConflict, echo.Map{"error": "this account already exists as a regular user"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Name, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:	toUserPart(u),
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// SendVerification re-queues the verification email for an existing
// account.  Answers 200 either way so the endpoint cannot be used to
// probe which addresses have accounts.
func (h *AuthHandler) SendVerification(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if u, err := h.Users.GetByEmail(ctx, req.Email); err == nil && !u.Verified {
		h.queueVerificationMail(c, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification email sent if the account exists"})
}

// VerifyEmail consumes the token from the emailed link and flips the
// account to verified.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	userID, err := utils.ParseEmailToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetVerified(ctx, userID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// queueVerificationMail publishes the verification email to the mail
// queue.  Failures are logged and swallowed: signup must not fail
// because the broker is down, and the user can re-request the mail.
func (h *AuthHandler) queueVerificationMail(c echo.Context, u *model.User) {
	token, err := utils.NewEmailToken(h.Cfg.JWTSecret, u.ID, emailTokenTTL)
	if err != nil {
		c.Logger().Errorf("sign verification token: %v", err)
		return
	}
	link := fmt.Sprintf("%s/users/verify-email?token=%s", strings.TrimRight(h.Cfg.AppURL, "/"), token)
	msg := queue.MailMessage{
		To:		   u.Email,
		Subject:   "Verify your email address",
		Body:	   fmt.Sprintf("Hi %s, please confirm your email address by visiting: %s", u.Name, link),
		Kind:	   "verification",
		UserID:	   u.ID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Mail(c.Request().Context(), msg); err != nil {
		c.Logger().Warnf("queue verification mail: %v", err)
	}
}
