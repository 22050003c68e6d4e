package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validationf("password must be at least %d characters", 6), http.StatusBadRequest},
		{"auth", InvalidCredentials(), http.StatusUnauthorized},
		{"wrapped auth", fmt.Errorf("login: %w", AuthRequired()), http.StatusUnauthorized},
		{"not found", fmt.Errorf("user 7: %w", ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: username already taken", ErrConflict), http.StatusConflict},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"upstream", fmt.Errorf("lookup: %w", ErrUpstream), http.StatusBadGateway},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "password must be at least 6 characters",
		PublicMessage(Validationf("password must be at least %d characters", 6)))
	assert.Equal(t, "username already taken",
		PublicMessage(fmt.Errorf("register: %w", fmt.Errorf("%w: username already taken", ErrConflict))))
	assert.Equal(t, MsgInvalidCredentials, PublicMessage(InvalidCredentials()))
	assert.Equal(t, MsgAuthRequired, PublicMessage(fmt.Errorf("update avatar: %w", AuthRequired())))
	assert.Equal(t, MsgInvalidCredentials, PublicMessage(ErrUnauthorized))
	assert.Equal(t, MsgUpstream, PublicMessage(fmt.Errorf("%w: status 503 from https://users.example", ErrUpstream)))
	assert.Equal(t, MsgInternal, PublicMessage(errors.New("open /data/users.json: permission denied")))
}

func TestRespondWithDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithDomainError(rec, fmt.Errorf("%w: status 500", ErrUpstream))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"avatar service unavailable"}`, rec.Body.String())
}
