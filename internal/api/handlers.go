package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/codemint/internal/codes"
)

// VerifyCodeRequest is the body of POST /verify-code.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

// VerifyCodeResponse reports whether a code was redeemed and why not.
type VerifyCodeResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

// verifyCode redeems a code exactly once. The code itself is the
// credential; there is no further authentication.
func (s *Server) verifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "invalid request body",
		})
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		// No store access for blank input.
		return c.JSON(http.StatusOK, VerifyCodeResponse{Valid: false, Reason: "empty"})
	}

	outcome, err := s.store.Redeem(c.Request().Context(), code, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to redeem code")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"detail": "store failure",
		})
	}

	switch outcome {
	case codes.RedeemNotFound:
		return c.JSON(http.StatusOK, VerifyCodeResponse{Valid: false, Reason: "not_found"})
	case codes.RedeemAlreadyUsed:
		return c.JSON(http.StatusOK, VerifyCodeResponse{Valid: false, Reason: "already_used"})
	default:
		return c.JSON(http.StatusOK, VerifyCodeResponse{Valid: true, Reason: "ok"})
	}
}

// debugCodes dumps the whole store, payer emails included. Only
// routed when debug.expose_codes is set; never enable in production.
func (s *Server) debugCodes(c echo.Context) error {
	data, err := s.store.Load(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load code store")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"detail": "store failure",
		})
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, data)
}
