package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// DownloadToken is the payload carried by a signed document link.
type DownloadToken struct {
	DocumentID string
	Key        string
	ExpiresAt  time.Time
}

// SignedURLSigner issues short-lived HMAC tokens for document downloads.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner defaults ttl to 30 minutes.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token of the form docID.expiry.key.signature.
func (s *SignedURLSigner) Sign(documentID, key string) (string, time.Time, error) {
	if documentID == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("document id and key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(key))
	sig := s.mac(documentID, exp, encodedKey)
	return strings.Join([]string{documentID, exp, encodedKey, sig}, "."), expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded payload.
func (s *SignedURLSigner) Verify(token string) (DownloadToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadToken{}, ErrTokenMalformed
	}
	docID, exp, encodedKey, sig := parts[0], parts[1], parts[2], parts[3]

	expected := s.mac(docID, exp, encodedKey)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return DownloadToken{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return DownloadToken{}, ErrTokenMalformed
	}
	rawKey, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return DownloadToken{}, ErrTokenMalformed
	}
	expiresAt := time.Unix(unix, 0).UTC()
	if s.now().After(expiresAt) {
		return DownloadToken{}, ErrTokenExpired
	}
	return DownloadToken{DocumentID: docID, Key: string(rawKey), ExpiresAt: expiresAt}, nil
}

func (s *SignedURLSigner) mac(docID, exp, encodedKey string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(docID + "|" + exp + "|" + encodedKey))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
