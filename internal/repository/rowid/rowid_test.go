package rowid

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{uuid.NewString(), true},
		{"6f1c2c4e-9a8b-4f6e-8d2a-1b3c4d5e6f70", true},
		{"", false},
		{"abc", false},
		{"123", false},
		{"6f1c2c4e-9a8b-4f6e-8d2a", false},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, Valid(tc.id))
		})
	}
}

func TestIsInvalidText(t *testing.T) {
	invalid := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	assert.True(t, IsInvalidText(invalid))
	assert.True(t, IsInvalidText(fmt.Errorf("scan: %w", invalid)))
	assert.False(t, IsInvalidText(&pq.Error{Code: "23505"}))
	assert.False(t, IsInvalidText(sql.ErrNoRows))
	assert.False(t, IsInvalidText(nil))
}
