package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionRole(t *testing.T) {
	cases := []struct {
		name    string
		from    Role
		to      Role
		want    Role
		wantErr bool
	}{
		{"user becomes trainer", RoleUser, RoleTrainer, RoleTrainer, false},
		{"trainer reverts to user", RoleTrainer, RoleUser, RoleUser, false},
		{"admin cannot be demoted", RoleAdmin, RoleUser, RoleAdmin, true},
		{"admin cannot become trainer", RoleAdmin, RoleTrainer, RoleAdmin, true},
		{"trainer to trainer is a no-op error", RoleTrainer, RoleTrainer, RoleTrainer, true},
		{"user cannot self-promote to admin", RoleUser, RoleAdmin, RoleUser, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TransitionRole(tc.from, tc.to)
			assert.Equal(t, tc.want, got)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidRoleTransition))
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
