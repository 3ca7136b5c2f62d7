package rest

import (
	"net/http"
	"strings"
)

const roleHeader = "X-User-Role"

type Role string

const (
	RoleGuest   Role = "guest"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleGuest:   0,
	RoleAnalyst: 1,
	RoleAdmin:   2,
}

// ParseRole reads X-User-Role. Missing or unknown roles are guests.
func ParseRole(r *http.Request) Role {
	role := Role(strings.ToLower(strings.TrimSpace(r.Header.Get(roleHeader))))
	if _, ok := roleRank[role]; !ok {
		return RoleGuest
	}
	return role
}

func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

func AllowGroundedQuery(role Role) bool {
	return role.AtLeast(RoleAnalyst)
}

func requireRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ParseRole(r).AtLeast(min) {
				writeError(w, r, http.StatusForbidden, "forbidden", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
