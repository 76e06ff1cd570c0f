package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/storeadmin/internal/apiclient"
	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError("days", "must be between 1 and 365"), http.StatusBadRequest},
		{"not found", fmt.Errorf("order 9: %w", domain.ErrNotFound), http.StatusNotFound},
		{"not confirmed", controller.ErrNotConfirmed, http.StatusConflict},
		{"upstream 400", &apiclient.APIError{StatusCode: http.StatusBadRequest, Message: "bad"}, http.StatusBadRequest},
		{"upstream 404", &apiclient.APIError{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"upstream 500", &apiclient.APIError{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Enter customer name", errorMessage(domain.NewValidationError("customer_name", "Enter customer name")))
	assert.Equal(t, "Not found", errorMessage(domain.ErrNotFound))
	assert.Equal(t, "Product in use", errorMessage(&apiclient.APIError{StatusCode: 500, Message: "Product in use"}))
	assert.Equal(t, "Failed to load data", errorMessage(errors.New("boom")))
}

func TestErrorResponseHidesUpstreamDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)

	err := fmt.Errorf("list products: %w", &apiclient.APIError{
		Method: http.MethodGet, Path: "/getProducts", StatusCode: http.StatusInternalServerError, Message: "db down",
	})
	errorResponse(c, err)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"db down"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "/getProducts")
}
