package auth

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// Source says where a credential was found.
type Source int

const (
	Absent Source = iota
	FromCookie
	FromHeader
)

func (s Source) String() string {
	switch s {
	case FromCookie:
		return "cookie"
	case FromHeader:
		return "header"
	default:
		return "absent"
	}
}

// Credential is the access token presented with a request, if any.
// Token is empty exactly when Source is Absent.
type Credential struct {
	Source Source
	Token  string
}

// Extract looks for the access token in the named cookie first and in an
// "Authorization: Bearer" header second. The first non-empty match wins.
func Extract(r *http.Request, cookieName string) Credential {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return Credential{Source: FromCookie, Token: c.Value}
	}

	scheme, token, ok := strings.Cut(r.Header.Get(common.AuthorizationHeader), " ")
	if ok && strings.EqualFold(scheme, common.BearerScheme) {
		if token = strings.TrimSpace(token); token != "" {
			return Credential{Source: FromHeader, Token: token}
		}
	}

	return Credential{Source: Absent}
}
