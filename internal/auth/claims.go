package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// claimsParser decodes token payloads without verifying signatures. The token
// was already validated by the issuing server; claims are used here only for
// display metadata, never for access control. Padding is allowed because some
// issuers emit padded base64 segments.
var claimsParser = jwt.NewParser(jwt.WithPaddingAllowed())

// projectClaimNames is the lookup order for a project identifier inside a token.
var projectClaimNames = []string{"project", "proj", "aud", "client_id"}

// ExtractClaims returns the claims of a bearer token without verifying its
// signature. Any structural problem (wrong segment count, invalid base64,
// invalid JSON) reports ok=false; it never panics or returns an error.
func ExtractClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := claimsParser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ProjectIdentifier extracts the Codicent project a token is scoped to,
// trying the project, proj, aud, and client_id claims in that order.
func ProjectIdentifier(token string) (string, bool) {
	claims, ok := ExtractClaims(token)
	if !ok {
		return "", false
	}
	for _, name := range projectClaimNames {
		if value, present := claims[name]; present {
			if s := claimString(value); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// claimString normalizes a claim value to a string. The aud claim may arrive
// as a JSON array; its first entry is used.
func claimString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
