package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), EINTERNAL},
		{"domain error", Invalid("op", "bad"), EINVALID},
		{"wrapped domain error", fmt.Errorf("outer: %w", Conflict("op", "dup")), ECONFLICT},
		{"validation error", NewValidationError("op", "email", "required"), EINVALID},
		{"unavailable", Unavailable(errors.New("timeout"), "op", "stripe down"), EUNAVAILABLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "op", "Failed to load billing")
	assert.Equal(t, genericInternalMessage, ErrorMessage(err))

	err = Unavailable(errors.New("stripe: 503"), "op", "checkout failed")
	assert.Equal(t, genericInternalMessage, ErrorMessage(err))

	assert.Equal(t, "bad input", ErrorMessage(Invalid("op", "bad input")))
}

func TestError_ErrorIncludesCause(t *testing.T) {
	err := Internal(errors.New("disk full"), "Repo.Save", "save failed")
	assert.Equal(t, "Repo.Save: save failed: disk full", err.Error())
	assert.True(t, errors.Is(err, err.Err))
}

func TestValidationError_Add(t *testing.T) {
	ve := &ValidationError{Op: "signup"}
	assert.NoError(t, ve.OrNil())

	ve.Add("email", "Enter a valid email address.")
	ve.Add("email", "ignored")
	ve.Add("password", "Too short.")

	assert.Error(t, ve.OrNil())
	assert.Equal(t, "Enter a valid email address.", ve.Fields["email"])
	assert.Len(t, ve.Fields, 2)
	assert.True(t, IsCode(ve, EINVALID))
}
