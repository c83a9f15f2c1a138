package braziliex

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"maps"

	"bursa/pkg/core"
)

// Header names of the private API.
const (
	HeaderKey         = "Key"
	HeaderSign        = "Sign"
	HeaderContentType = "Content-Type"

	formContentType = "application/x-www-form-urlencoded"
)

// Sign builds the body of a private call and its authentication headers.
// The body is the url-encoded union of params with command and nonce, and
// the signature is the hex HMAC-SHA512 of that body keyed by the secret.
// Output depends only on the inputs.
func Sign(command string, params core.Params, nonce int64, creds core.Credentials) (string, map[string]string) {
	payload := make(core.Params, len(params)+2)
	maps.Copy(payload, params)
	payload["command"] = command
	payload["nonce"] = nonce

	body := core.EncodeParams(payload)

	return body, map[string]string{
		HeaderContentType: formContentType,
		HeaderKey:         creds.APIKey,
		HeaderSign:        signHMAC(body, creds.SecretKey),
	}
}

func signHMAC(payload, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
