package title

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "keeps first ten words",
			response: "Entropy is a measure of disorder in a thermodynamic system, and it always grows.",
			want:     "Entropy is a measure of disorder in a thermodynamic system",
		},
		{
			name:     "strips markdown",
			response: "## **Great question!** See [the notes](http://x.y/z) for `detail`.",
			want:     "Great question See the notes for detail",
		},
		{
			name:     "strips math delimiters",
			response: "The formula $S = k \\ln W$ relates $$entropy$$ to states",
			want:     "The formula S k W relates entropy to states",
		},
		{
			name:     "drops code blocks",
			response: "Try this:\n```go\nfmt.Println(1)\n```\nthen run it",
			want:     "Try this then run it",
		},
		{
			name:     "nothing usable",
			response: "!!! ... ???",
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.response)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(strings.Fields(got)), maxWords)
		})
	}
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel("New Chat"))
	assert.True(t, IsSentinel(""))
	assert.True(t, IsSentinel("  "))
	assert.False(t, IsSentinel("Entropy is a measure"))
}
