package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/storeadmin/internal/apiclient"
	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps an error to the HTTP status returned to the browser.
func statusFor(err error) int {
	var ve *domain.ValidationError
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrNotConfirmed):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound:
			return apiErr.StatusCode
		}
	}
	return http.StatusBadGateway
}

// errorMessage is the user-facing text for err.
func errorMessage(err error) string {
	var ve *domain.ValidationError
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	case errors.Is(err, controller.ErrNotConfirmed):
		return "Delete must be confirmed"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return "Failed to load data"
}

// errorResponse answers with the user-facing message only; the full error
// goes to the log.
func errorResponse(c *gin.Context, err error) {
	status := statusFor(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("request failed")
	c.JSON(status, gin.H{"error": errorMessage(err)})
}
