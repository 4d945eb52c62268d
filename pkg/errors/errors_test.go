package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: NewValidationError([]string{"bad"}), want: http.StatusBadRequest},
		{name: "wrapped validation", err: fmt.Errorf("import: %w", NewValidationError([]string{"bad"})), want: http.StatusBadRequest},
		{name: "unsupported", err: &UnsupportedActionError{Kind: "ProfileUpdatedNotification", Action: "delete"}, want: http.StatusBadRequest},
		{name: "not found", err: NotFound("Profile with id: %d was not found!", 3), want: http.StatusNotFound},
		{name: "conflict", err: Conflict("busy"), want: http.StatusConflict},
		{name: "plain", err: errors.New("db down"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestValidationError_CarriesMessages(t *testing.T) {
	err := NewValidationError([]string{"one", "two"})

	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
	assert.Contains(t, err.Error(), "one; two")

	he := err.ToHTTPError()
	assert.Equal(t, []string{"one", "two"}, he.Meta["errors"])
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(he))
}

func TestUnsupportedAction(t *testing.T) {
	err := &UnsupportedActionError{Kind: "ProfileUpdatedNotification", Action: "edit"}

	assert.True(t, IsUnsupportedAction(err))
	assert.False(t, IsUnsupportedAction(errors.New("x")))
	assert.Equal(t, "action edit is not supported for ProfileUpdatedNotification", err.Error())
	assert.Equal(t, "edit", err.ToHTTPError().Meta["action"])
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("gone")))
	assert.False(t, IsNotFound(BadRequest("bad")))
}
