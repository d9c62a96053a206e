// Package idgen derives chat and message identifiers from their content.
// Both functions are pure: identical inputs always yield identical ids.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const dateHashLen = 12

// Generator is the injectable face of this package
type Generator interface {
	ChatID(userID, courseName string, date time.Time) string
	MessageID(text, chatID string, timestampMs int64) string
}

// Deterministic implements Generator with the package functions
type Deterministic struct{}

func (Deterministic) ChatID(userID, courseName string, date time.Time) string {
	return ChatID(userID, courseName, date)
}

func (Deterministic) MessageID(text, chatID string, timestampMs int64) string {
	return MessageID(text, chatID, timestampMs)
}

// ChatID returns "<user>-<course>-<date-hash>"
func ChatID(userID, courseName string, date time.Time) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(date.UTC().UnixMilli(), 10)))
	return userID + "-" + courseName + "-" + hex.EncodeToString(sum[:])[:dateHashLen]
}

// MessageID hashes the message text together with its chat and timestamp
func MessageID(text, chatID string, timestampMs int64) string {
	h := sha256.New()
	h.Write([]byte(strings.Join([]string{text, chatID, strconv.FormatInt(timestampMs, 10)}, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}
