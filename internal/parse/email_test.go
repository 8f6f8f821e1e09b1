package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmail_Simple(t *testing.T) {
	e := NewEmail("John.Doe@Acme.com")
	assert.True(t, e.Valid)
	assert.Equal(t, "John.Doe", e.Local)
	assert.Equal(t, "acme.com", e.Domain)
	assert.Equal(t, "john.doe@acme.com", e.Canonical())
}

func TestNewEmail_TrimsWhitespace(t *testing.T) {
	e := NewEmail("  jane@acme.com  ")
	assert.True(t, e.Valid)
	assert.Equal(t, "jane", e.Local)
}

func TestNewEmail_Invalid(t *testing.T) {
	for _, raw := range []string{"", "not-an-email", "@acme.com", "jane@", "@"} {
		e := NewEmail(raw)
		assert.False(t, e.Valid, "input %q should not parse", raw)
	}
}

func TestNewEmail_InvalidKeepsRaw(t *testing.T) {
	e := NewEmail("not-an-email")
	assert.Equal(t, "not-an-email", e.Raw)
	assert.Equal(t, "not-an-email", e.Canonical())
}

func TestNewEmail_IDNDomain(t *testing.T) {
	e := NewEmail("info@münchen.de")
	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_PunycodeDisplayForm(t *testing.T) {
	e := NewEmail("info@xn--mnchen-3ya.de")
	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_UnicodeLocal(t *testing.T) {
	// net/mail rejects SMTPUTF8 local parts, the manual fallback handles them.
	e := NewEmail("józsef@example.com")
	assert.True(t, e.Valid)
	assert.Equal(t, "józsef", e.Local)
	assert.Equal(t, "example.com", e.Domain)
}
