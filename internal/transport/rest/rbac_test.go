package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		header string
		want   Role
	}{
		{"", RoleGuest},
		{"guest", RoleGuest},
		{"Analyst", RoleAnalyst},
		{" ADMIN ", RoleAdmin},
		{"root", RoleGuest},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(roleHeader, tt.header)
			}
			assert.Equal(t, tt.want, ParseRole(r))
		})
	}
}

func TestAllowGroundedQuery(t *testing.T) {
	assert.False(t, AllowGroundedQuery(RoleGuest))
	assert.True(t, AllowGroundedQuery(RoleAnalyst))
	assert.True(t, AllowGroundedQuery(RoleAdmin))
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleAnalyst))
	assert.False(t, RoleAnalyst.AtLeast(RoleAdmin))
	assert.True(t, RoleGuest.AtLeast(RoleGuest))
}
