// Package tiktok implements the signed TikTok Shop and TikTok Ads API
// clients: request signing, the shared retry/timeout HTTP client, response
// envelope decoding, and the platform operations built on top of them.
package tiktok

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Sign computes the TikTok Shop request signature: drop any previous sign
// parameter, sort keys byte-wise, concatenate key+value pairs with no
// delimiter, wrap the concatenation between two copies of the secret, and
// SHA-256 the UTF-8 bytes, rendered as lowercase hex.
//
// The framing is a wire-compatibility requirement; the remote verifier
// recomputes the exact same string. Identical inputs always yield identical
// output.
func Sign(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(secret)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SignValues flattens url.Values into the canonical parameter map and signs
// it. Multi-valued parameters are JSON-encoded before inclusion so that
// array params stringify consistently.
func SignValues(secret string, values url.Values) string {
	params := make(map[string]string, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
			params[k] = ""
		case 1:
			params[k] = vs[0]
		default:
			enc, _ := json.Marshal(vs)
			params[k] = string(enc)
		}
	}
	return Sign(secret, params)
}
