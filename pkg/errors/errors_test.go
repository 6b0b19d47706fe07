package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "limit %d out of range", -1)

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input: limit -1 out of range", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(err))
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(fmt.Errorf("parse: %w", ErrInvalidInput)))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(ErrTimeout))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(errors.New("boom")))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("loading: %w", ErrCorruptCache)))
	assert.True(t, IsFatal(ErrNotDirectory))
	assert.False(t, IsFatal(fmt.Errorf("a.pdf: %w", ErrDecode)))
	assert.False(t, IsFatal(ErrUnsupportedLanguage))
}
