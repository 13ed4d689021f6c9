package controller

import (
	"errors"
	"net/http"

	"github.com/oobauth/oobauth/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondOAuthError serializes a service error using the standard error
// vocabulary. Anything that is not an OAuthError is a server error and gets
// logged rather than leaked.
func respondOAuthError(c *gin.Context, err error) {
	var oauthError *service.OAuthError
	if errors.As(err, &oauthError) {
		c.JSON(statusForCode(oauthError.Code), gin.H{
			"error":             oauthError.Code,
			"error_description": oauthError.Description,
		})
		return
	}

	log.Error().Err(err).Msg("Unexpected error handling request")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":             service.ErrorServerError,
		"error_description": "Internal server error",
	})
}

// respondDecisionError maps store errors on the human-decision endpoints.
func respondDecisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Authorization request not found or expired"})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "Authorization request already decided"})
	default:
		log.Error().Err(err).Msg("Failed to apply decision")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func statusForCode(code string) int {
	switch code {
	case service.ErrorInvalidClient:
		return http.StatusUnauthorized
	case service.ErrorServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
