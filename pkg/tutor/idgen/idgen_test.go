package idgen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageIDIsDeterministic(t *testing.T) {
	a := MessageID("What is entropy?", "u1-CHBE241-abc", 1700000000000)
	b := MessageID("What is entropy?", "u1-CHBE241-abc", 1700000000000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestMessageIDChangesWithEachInput(t *testing.T) {
	base := MessageID("hello", "chat", 1)
	assert.NotEqual(t, base, MessageID("hello!", "chat", 1))
	assert.NotEqual(t, base, MessageID("hello", "chat2", 1))
	assert.NotEqual(t, base, MessageID("hello", "chat", 2))
	// field boundaries matter
	assert.NotEqual(t, MessageID("ab", "c", 1), MessageID("a", "bc", 1))
}

func TestChatID(t *testing.T) {
	d := time.Date(2024, 9, 3, 10, 30, 0, 0, time.UTC)

	id := ChatID("u1", "CHBE241", d)
	assert.True(t, strings.HasPrefix(id, "u1-CHBE241-"))
	assert.Len(t, strings.TrimPrefix(id, "u1-CHBE241-"), dateHashLen)
	assert.Equal(t, id, ChatID("u1", "CHBE241", d))

	// same instant in another zone maps to the same id
	local := d.In(time.FixedZone("PDT", -7*3600))
	assert.Equal(t, id, ChatID("u1", "CHBE241", local))

	assert.NotEqual(t, id, ChatID("u1", "CHBE241", d.Add(time.Millisecond)))
}

func TestDeterministicGenerator(t *testing.T) {
	var g Generator = Deterministic{}
	d := time.UnixMilli(42)
	assert.Equal(t, ChatID("u", "c", d), g.ChatID("u", "c", d))
	assert.Equal(t, MessageID("t", "c", 42), g.MessageID("t", "c", 42))
}
