package server

import (
	"errors"
	"log/slog"
	"time"

	"gatepost/internal/middleware"
	"gatepost/internal/models"
	"gatepost/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode"`
}

// Register handles POST /register. A successful registration consumes the
// invite code and establishes a session in the same response.
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.Register(c.Context(), service.RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		return respondError(c, err)
	}

	if err := s.issueSession(c, user.ID, "register"); err != nil {
		return respondError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// Login handles POST /login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.issueSession(c, user.ID, "login"); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

// Logout handles POST /logout. The session is removed server-side and the
// cookie cleared.
func (s *Server) Logout(c *fiber.Ctx) error {
	token := c.Cookies(s.config.SessionCookie)
	if token != "" {
		if err := s.sessions.Delete(c.Context(), token); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to delete session",
				slog.String("error", err.Error()))
		}
	}
	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /me, returning the account behind the current session.
func (s *Server) Me(c *fiber.Ctx) error {
	userID := s.currentUserID(c)

	user, err := s.accountService.GetUser(c.Context(), userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			// The session points at a user that no longer exists; revoke
			// it server-side along with the cookie.
			if token := c.Cookies(s.config.SessionCookie); token != "" {
				if delErr := s.sessions.Delete(c.Context(), token); delErr != nil {
					middleware.Logger.WarnContext(c.UserContext(), "failed to delete session",
						slog.String("error", delErr.Error()))
				}
			}
			s.clearSessionCookie(c)
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired session"))
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

// issueSession creates a session for the user and sets the cookie.
func (s *Server) issueSession(c *fiber.Ctx, userID uint, source string) error {
	token, err := s.sessions.Create(c.Context(), userID)
	if err != nil {
		return models.NewInternalError(err)
	}

	middleware.SessionsIssued.WithLabelValues(source).Inc()
	s.bindUser(c, userID)

	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   s.config.SessionTTLHours * 3600,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
