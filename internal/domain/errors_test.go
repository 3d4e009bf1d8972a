package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := Errorf(ErrInvalidReference, "node %q not found", "x").WithOp("rename")

	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, `rename: node "x" not found`, err.Error())

	wrapped := fmt.Errorf("gesture: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidReference)
	assert.Equal(t, KindInvalidReference, KindOf(wrapped))
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := PersistenceError("save", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}
