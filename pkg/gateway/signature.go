package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks the provider's webhook signature header against the
// exact raw request body. The header carries a timestamp and one or more
// hex-encoded HMAC-SHA256 digests of "<timestamp>.<body>":
//
//	t=1700000000,v1=5257a869e7...
//
// Pure function of its inputs; callers must not parse or mutate the body
// before verification.
func VerifySignature(rawBody []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}

	var timestamp string
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return false
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		candidate, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}

// SignPayload produces a signature header for rawBody, the counterpart of
// VerifySignature. Used by tests and the local webhook simulator.
func SignPayload(rawBody []byte, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
