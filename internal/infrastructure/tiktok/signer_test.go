package tiktok

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignDeterministic(t *testing.T) {
	params := map[string]string{
		"app_key":   "abc123",
		"timestamp": "1700000000",
		"page_size": "50",
	}

	first := Sign("secret", params)
	second := Sign("secret", params)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)
}

func TestSignOrderInvariant(t *testing.T) {
	a := Sign("secret", map[string]string{"b": "2", "a": "1", "c": "3"})
	b := Sign("secret", map[string]string{"c": "3", "a": "1", "b": "2"})

	assert.Equal(t, a, b)
}

func TestSignSensitivity(t *testing.T) {
	base := Sign("secret", map[string]string{"app_key": "abc"})

	assert.NotEqual(t, base, Sign("secret", map[string]string{"app_key": "abd"}))
	assert.NotEqual(t, base, Sign("other", map[string]string{"app_key": "abc"}))
}

func TestSignIgnoresExistingSign(t *testing.T) {
	with := Sign("secret", map[string]string{"app_key": "abc", "sign": "stale"})
	without := Sign("secret", map[string]string{"app_key": "abc"})

	assert.Equal(t, without, with)
}

func TestSignEmptyParams(t *testing.T) {
	sum := sha256.Sum256([]byte("secret" + "secret"))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, Sign("secret", nil))
	assert.Equal(t, want, Sign("secret", map[string]string{}))
}

func TestSignValuesEncodesArrays(t *testing.T) {
	values := url.Values{}
	values.Add("ids", "1")
	values.Add("ids", "2")

	// Multi-valued params stringify as JSON arrays before signing.
	want := Sign("secret", map[string]string{"ids": `["1","2"]`})
	assert.Equal(t, want, SignValues("secret", values))
}

func TestSignValuesSingleValuePassthrough(t *testing.T) {
	values := url.Values{}
	values.Set("app_key", "abc")

	want := Sign("secret", map[string]string{"app_key": "abc"})
	assert.Equal(t, want, SignValues("secret", values))
}
