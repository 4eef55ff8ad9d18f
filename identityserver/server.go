// Package identityserver is an in-process implementation of the two external
// collaborators the session package talks to, the credential store and the
// token issuer. It backs integration tests and local development; it is not a
// hardened production deployment.
package identityserver

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	session "github.com/courselane/go-session"
)

// Config holds the server options. Zero values get sane defaults.
type Config struct {
	SigningKey  string
	Issuer      string
	TokenTTL    time.Duration
	RecoveryTTL string
	Logger      session.Logger
}

// Server wires the account and recovery repositories behind the HTTP surface
// the session client expects.
type Server struct {
	app         *fiber.App
	repo        RepositoryManager
	tokens      *TokenService
	recoveryTTL string
	logger      session.Logger
}

// New creates a server over the given database.
func New(db *bun.DB, cfg Config) *Server {
	if cfg.SigningKey == "" {
		cfg.SigningKey = "development-signing-key"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "courselane-identity"
	}
	if cfg.RecoveryTTL == "" {
		cfg.RecoveryTTL = "24h"
	}

	logger := session.NormalizeLogger(cfg.Logger)

	s := &Server{
		app:         fiber.New(),
		repo:        NewRepositoryManager(db),
		tokens:      NewTokenService([]byte(cfg.SigningKey), cfg.Issuer, cfg.TokenTTL, logger),
		recoveryTTL: cfg.RecoveryTTL,
		logger:      logger,
	}

	s.routes()

	return s
}

// App exposes the underlying fiber application so callers can serve it or
// drive it in-process through app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) routes() {
	s.app.Post("/auth/login", s.login)
	s.app.Post("/auth/register", s.register)
	s.app.Post("/auth/logout", s.logout)
	s.app.Get("/auth/me", s.me)
	s.app.Patch("/auth/profile", s.profile)
	s.app.Post("/auth/password-reset", s.recoveryRequest)
	s.app.Post("/auth/password-reset/finalize", s.recoveryFinalize)
}

func (s *Server) login(c *fiber.Ctx) error {
	payload := struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}{}

	if err := c.BodyParser(&payload); err != nil {
		return message(c, fiber.StatusBadRequest, "malformed payload")
	}

	account, err := s.repo.Accounts().GetByIdentifier(c.UserContext(), payload.Identifier)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			s.logger.Error("login lookup failed: %v", err)
			return message(c, fiber.StatusInternalServerError, "could not process login")
		}
		return message(c, fiber.StatusUnauthorized, "invalid identifier or password")
	}

	if err := ComparePasswordAndHash(payload.Password, account.PasswordHash); err != nil {
		return message(c, fiber.StatusUnauthorized, "invalid identifier or password")
	}

	return s.grant(c, fiber.StatusOK, account)
}

func (s *Server) register(c *fiber.Ctx) error {
	payload := struct {
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Role        string `json:"role"`
		Phone       string `json:"phone_number"`
	}{}

	if err := c.BodyParser(&payload); err != nil {
		return message(c, fiber.StatusBadRequest, "malformed payload")
	}

	role, ok := session.ParseRole(payload.Role)
	if !ok {
		return message(c, fiber.StatusUnprocessableEntity, "role must be one of: student, creator, admin")
	}

	if payload.Email == "" || payload.DisplayName == "" {
		return message(c, fiber.StatusUnprocessableEntity, "display name and email are required")
	}

	if len(payload.Password) < 8 {
		return message(c, fiber.StatusUnprocessableEntity, "password must be at least 8 characters")
	}

	if _, err := s.repo.Accounts().GetByIdentifier(c.UserContext(), payload.Email); err == nil {
		return message(c, fiber.StatusConflict, "an account with that email already exists")
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		s.logger.Error("register could not hash password: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not process registration")
	}

	account := &Account{
		Role:         role,
		DisplayName:  payload.DisplayName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		PasswordHash: hash,
	}

	if id, err := hashid.NewUUID(payload.Email); err == nil {
		account.ID = id
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	created, err := s.repo.Accounts().Create(c.UserContext(), account)
	if err != nil {
		s.logger.Error("register could not create account: %v", err)
		return message(c, fiber.StatusConflict, "could not create account")
	}

	return s.grant(c, fiber.StatusCreated, created)
}

func (s *Server) me(c *fiber.Ctx) error {
	account, err := s.authenticate(c)
	if err != nil {
		return message(c, fiber.StatusUnauthorized, "session token is expired or invalid")
	}

	return c.JSON(account.Identity())
}

func (s *Server) logout(c *fiber.Ctx) error {
	if _, err := s.authenticate(c); err != nil {
		return message(c, fiber.StatusUnauthorized, "session token is expired or invalid")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) profile(c *fiber.Ctx) error {
	account, err := s.authenticate(c)
	if err != nil {
		return message(c, fiber.StatusUnauthorized, "session token is expired or invalid")
	}

	payload := struct {
		DisplayName    string `json:"display_name"`
		Email          string `json:"email"`
		Phone          string `json:"phone_number"`
		ProfilePicture string `json:"profile_picture"`
		Bio            string `json:"bio"`
	}{}

	if err := c.BodyParser(&payload); err != nil {
		return message(c, fiber.StatusBadRequest, "malformed payload")
	}

	if payload.DisplayName != "" {
		account.DisplayName = payload.DisplayName
	}
	if payload.Email != "" {
		account.Email = payload.Email
	}
	if payload.Phone != "" {
		account.Phone = payload.Phone
	}
	if payload.ProfilePicture != "" {
		account.ProfilePicture = payload.ProfilePicture
	}
	if payload.Bio != "" {
		account.Bio = payload.Bio
	}

	updated, err := s.repo.Accounts().Update(c.UserContext(), account, repository.UpdateByID(account.ID.String()))
	if err != nil {
		s.logger.Error("profile update failed: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not update profile")
	}

	return c.JSON(updated.Identity())
}

func (s *Server) recoveryRequest(c *fiber.Ctx) error {
	payload := struct {
		Identifier string `json:"identifier"`
	}{}

	if err := c.BodyParser(&payload); err != nil {
		return message(c, fiber.StatusBadRequest, "malformed payload")
	}

	if payload.Identifier == "" {
		return message(c, fiber.StatusUnprocessableEntity, "identifier is required")
	}

	account, err := s.repo.Accounts().GetByIdentifier(c.UserContext(), payload.Identifier)
	if err != nil && !repository.IsRecordNotFound(err) {
		s.logger.Error("recovery lookup failed: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not process recovery request")
	}

	if account != nil {
		token := &RecoveryToken{
			ID:        uuid.New(),
			AccountID: &account.ID,
			Email:     account.Email,
			Status:    RecoveryRequestedStatus,
		}

		if _, err := s.repo.RecoveryTokens().Create(c.UserContext(), token); err != nil {
			s.logger.Error("recovery token create failed: %v", err)
			return message(c, fiber.StatusInternalServerError, "could not process recovery request")
		}

		// stand-in for the mailer: the link is only surfaced in the logs
		s.logger.Info("recovery link for %s: /reset-password/%s", account.Email, token.ID)
	}

	// uniform response regardless of account existence
	return message(c, fiber.StatusAccepted, "If an account exists for that address, a recovery email is on its way.")
}

func (s *Server) recoveryFinalize(c *fiber.Ctx) error {
	payload := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{}

	if err := c.BodyParser(&payload); err != nil {
		return message(c, fiber.StatusBadRequest, "malformed payload")
	}

	if _, err := uuid.Parse(payload.Token); err != nil {
		return message(c, fiber.StatusBadRequest, "malformed recovery token")
	}

	if len(payload.Password) < 8 {
		return message(c, fiber.StatusUnprocessableEntity, "password must be at least 8 characters")
	}

	token, err := s.repo.RecoveryTokens().GetByID(c.UserContext(), payload.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return message(c, fiber.StatusNotFound, "invalid or expired recovery token")
		}
		s.logger.Error("recovery token lookup failed: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not process recovery")
	}

	if token.Status != RecoveryRequestedStatus {
		return message(c, fiber.StatusConflict, "recovery token has already been used")
	}

	if token.CreatedAt != nil {
		expired, err := IsOutsideThresholdPeriod(*token.CreatedAt, s.recoveryTTL)
		if err != nil {
			s.logger.Error("recovery expiration check failed: %v", err)
			return message(c, fiber.StatusInternalServerError, "could not process recovery")
		}
		if expired {
			return message(c, fiber.StatusGone, "recovery token has expired")
		}
	}

	if token.AccountID == nil {
		return message(c, fiber.StatusInternalServerError, "recovery token is not associated with an account")
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		s.logger.Error("recovery could not hash password: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not process recovery")
	}

	err = s.repo.RunInTx(c.UserContext(), nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := s.repo.Accounts().GetByID(ctx, token.AccountID.String())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve account for recovery")
		}

		account.PasswordHash = hash
		if _, err := s.repo.Accounts().UpdateTx(ctx, tx, account, repository.UpdateByID(account.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		used := MarkRecoveryTokenUsed(token.ID)
		if _, err := s.repo.RecoveryTokens().UpdateTx(ctx, tx, used); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark recovery token as used")
		}

		return nil
	})

	if err != nil {
		s.logger.Error("recovery finalize failed: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not process recovery")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) grant(c *fiber.Ctx, status int, account *Account) error {
	token, err := s.tokens.Mint(account)
	if err != nil {
		s.logger.Error("could not issue session token: %v", err)
		return message(c, fiber.StatusInternalServerError, "could not issue session token")
	}

	return c.Status(status).JSON(fiber.Map{
		"token":    token,
		"identity": account.Identity(),
	})
}

func (s *Server) authenticate(c *fiber.Ctx) (*Account, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, session.ErrTokenInvalid
	}

	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	return s.repo.Accounts().GetByID(c.UserContext(), claims.UID)
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}
