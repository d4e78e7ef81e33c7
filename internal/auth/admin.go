// Package auth decides whether a caller holds the shared admin code.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminCode carries the admin code when it is not in the query string.
const HeaderAdminCode = "X-Admin-Code"

// QueryAdminCode is the query parameter the web frontend sends.
const QueryAdminCode = "admin"

// Admin verifies admin codes against either a plaintext secret or a bcrypt
// hash of it. The zero value rejects everyone.
type Admin struct {
	code string
	hash []byte
}

// NewAdmin builds a verifier. hash, when set, takes precedence over code and
// must be a bcrypt hash. With both empty nobody is ever admin.
func NewAdmin(code, hash string) (Admin, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return Admin{}, errors.New("ADMIN_CODE_HASH is not a bcrypt hash")
		}
		return Admin{hash: []byte(hash)}, nil
	}
	return Admin{code: code}, nil
}

// Enabled reports whether any secret is configured.
func (a Admin) Enabled() bool { return a.code != "" || len(a.hash) > 0 }

// Check reports whether supplied matches the configured secret exactly.
func (a Admin) Check(supplied string) bool {
	if supplied == "" {
		return false
	}
	switch {
	case len(a.hash) > 0:
		return bcrypt.CompareHashAndPassword(a.hash, []byte(supplied)) == nil
	case a.code != "":
		return subtle.ConstantTimeCompare([]byte(a.code), []byte(supplied)) == 1
	}
	return false
}

// FromRequest extracts the supplied code: the admin query parameter first,
// then the X-Admin-Code header.
func FromRequest(r *http.Request) string {
	if c := r.URL.Query().Get(QueryAdminCode); c != "" {
		return c
	}
	return r.Header.Get(HeaderAdminCode)
}

// IsAdmin reports whether r carries the admin code.
func (a Admin) IsAdmin(r *http.Request) bool {
	if !a.Enabled() {
		return false
	}
	return a.Check(FromRequest(r))
}
