package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(KindPersistence, io.ErrUnexpectedEOF, "could not save %s", "gantt_tasks.json")

	assert.Equal(t, "could not save gantt_tasks.json: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKindOfWrappedError(t *testing.T) {
	inner := Validation("task name is required")
	outer := fmt.Errorf("add task: %w", inner)

	assert.Equal(t, KindValidation, KindOf(outer))
	assert.True(t, IsKind(outer, KindValidation))
	assert.False(t, IsKind(outer, KindIndex))
	assert.False(t, IsKind(nil, KindValidation))
	assert.Equal(t, Kind(""), KindOf(io.EOF))
}
