package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Persistence("Store.IncrementQuota", cause, "failed to increment quota")

	assert.Equal(t, "failed to increment quota: connection refused", err.Error())
	assert.True(t, stderrors.Is(err, cause))

	bare := QuotaExhausted("Refresher.Refresh", "daily quota exhausted")
	assert.Equal(t, "daily quota exhausted", bare.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", stderrors.New("boom"), KindInternal},
		{"direct", Collaborator("op", nil, "timeout"), KindCollaborator},
		{"wrapped", fmt.Errorf("batch 2: %w", Persistence("op", nil, "locked")), KindPersistence},
		{"not found", NotFound("op", nil, "missing"), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}

	assert.True(t, IsNotFound(NotFound("op", nil, "missing")))
	assert.False(t, IsNotFound(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidInput("op", nil, "bad").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound("op", nil, "gone").HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, QuotaExhausted("op", "spent").HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, Collaborator("op", nil, "down").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Config("op", nil, "missing key").HTTPStatus())
}
