package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))

	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isUniqueViolation(errors.New(`duplicate key value violates unique constraint "users_email_key"`)))
	assert.True(t, isUniqueViolation(errors.New("ERROR: duplicate key value (SQLSTATE 23505)")))
}

func TestDuplicateConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			"sqlite email",
			errors.New("UNIQUE constraint failed: users.email"),
			ErrDuplicateEmail,
		},
		{
			"sqlite student id",
			errors.New("UNIQUE constraint failed: users.student_id"),
			ErrDuplicateStudentID,
		},
		{
			"postgres email",
			errors.New(`duplicate key value violates unique constraint "users_email_key"`),
			ErrDuplicateEmail,
		},
		{
			"postgres student id",
			errors.New(`duplicate key value violates unique constraint "users_student_id_key"`),
			ErrDuplicateStudentID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, duplicateConflict(tt.err), tt.want)
		})
	}
}
