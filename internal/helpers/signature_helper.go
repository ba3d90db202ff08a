package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HMACSigner produces hex HMAC-SHA256 signatures over "|"-joined components.
type HMACSigner struct {
	SecretKey string
}

func NewHMACSigner(secretKey string) *HMACSigner {
	return &HMACSigner{SecretKey: secretKey}
}

func (s *HMACSigner) Sign(components ...string) string {
	mac := hmac.New(sha256.New, []byte(s.SecretKey))
	mac.Write([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (s *HMACSigner) Verify(signature string, components ...string) bool {
	expected := s.Sign(components...)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
