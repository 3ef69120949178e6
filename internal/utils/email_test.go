package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
	assert.Equal(t, "x.com", GetDomainFromEmail("a@x.com"))
	assert.Empty(t, GetDomainFromEmail("nope"))
	assert.Equal(t, "asha.rao", GetLocalPart("asha.rao@x.com"))
	assert.Equal(t, "plain", GetLocalPart("plain"))
}
