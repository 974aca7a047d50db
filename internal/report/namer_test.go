package report

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenPattern = `[0-9a-v]{20}`

func fixedNamer(now time.Time, token string) *Namer {
	return &Namer{
		now:   func() time.Time { return now },
		token: func() string { return token },
	}
}

func TestNameUsesClientHints(t *testing.T) {
	n := NewNamer()
	name := n.Name("42", "1000", "IMG_0001.JPG", ".jpg")
	assert.Regexp(t, regexp.MustCompile(`^42_1000_`+tokenPattern+`\.JPG$`), name)
}

func TestNameDefaults(t *testing.T) {
	n := fixedNamer(time.Unix(1700000000, 0), "tok")
	assert.Equal(t, "anonymous_1700000000_tok.webp", n.Name("", "", "shot.webp", ".webp"))
	assert.Equal(t, "anonymous_1700000000_tok.webp", n.Name("   ", "  ", "shot.webp", ".webp"))
}

func TestNameFallsBackToSniffedExtension(t *testing.T) {
	n := fixedNamer(time.Unix(1, 0), "tok")
	assert.Equal(t, "7_5_tok.png", n.Name("7", "5", "blob", ".png"))
	assert.Equal(t, "7_5_tok", n.Name("7", "5", "blob", ""))
}

func TestNameIsUniqueForIdenticalInputs(t *testing.T) {
	n := NewNamer()
	const calls = 1000

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, calls)
		wg   sync.WaitGroup
	)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := n.Name("42", "1000", "a.png", ".png")
			mu.Lock()
			seen[name] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, calls)
}

func TestNameStripsTraversal(t *testing.T) {
	n := fixedNamer(time.Unix(1, 0), "tok")

	tests := []struct {
		name      string
		userID    string
		timestamp string
		original  string
		want      string
	}{
		{"user with dots and slashes", "../../etc", "5", "a.png", "etc_5_tok.png"},
		{"backslashes", `..\..\win`, "5", "a.png", "win_5_tok.png"},
		{"user reduces to nothing", "../", "5", "a.png", "anonymous_5_tok.png"},
		{"timestamp with separators", "7", "1/2/3", "a.png", "7_123_tok.png"},
		{"control characters", "7\x00\n", "5", "a.png", "7_5_tok.png"},
		{"client path in filename", "7", "5", `C:\photos\evil.png`, "7_5_tok.png"},
		{"extension with traversal", "7", "5", "a.png/..", "7_5_tok.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Name(tt.userID, tt.timestamp, tt.original, ".png")
			assert.Equal(t, tt.want, got)
			require.NotContains(t, got, "/")
			require.NotContains(t, got, `\`)
			require.False(t, strings.Contains(got, ".."))
		})
	}
}
