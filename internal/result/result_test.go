package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	boom := errors.New("disk full")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation passes through", Invalid("no tasks selected"), "*result.ValidationError"},
		{"wrapped validation", fmt.Errorf("select: %w", Invalid("bad id")), "*result.ValidationError"},
		{"store error passes through", FromStore("Failed", boom), "*result.StoreError"},
		{"plain error becomes store error", boom, "*result.StoreError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("Failed to save", tt.err)
			assert.Equal(t, tt.want, fmt.Sprintf("%T", got))
		})
	}
}

func TestFromStore(t *testing.T) {
	boom := errors.New("disk full")
	err := FromStore("Failed to delete tasks", boom)

	assert.Equal(t, "Failed to delete tasks: disk full", err.Message())
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsSuccess(err))
	assert.True(t, IsSuccess(Success{Text: "ok"}))
}

func TestInvalidField(t *testing.T) {
	err := InvalidField(FieldTitle, "Title cannot be empty")
	assert.Equal(t, FieldTitle, err.Field)
	assert.EqualError(t, err, "Title cannot be empty")
}
