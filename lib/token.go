package lib

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// GenerateCSRFToken generates the double-submit token for admin writes.
func GenerateCSRFToken() (string, error) {
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return token, nil
}

// ShortOrderID is the 8 character prefix shown to suppliers and customers.
func ShortOrderID(id uuid.UUID) string {
	return id.String()[:8]
}

// ImageObjectName builds "<unix millis>_<random>.<ext>" for an uploaded image.
func ImageObjectName(filename string, now time.Time) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}

	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return fmt.Sprintf("%d_%s.%s", now.UnixMilli(), hex.EncodeToString(b), ext), nil
}
