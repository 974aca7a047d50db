package report

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/xid"
)

// AnonymousUser replaces a missing or unusable user id.
const AnonymousUser = "anonymous"

// Namer builds storage filenames of the form
// <userId>_<timestamp>_<token>.<extension>.
type Namer struct {
	now   func() time.Time
	token func() string
}

// NewNamer returns a Namer using the wall clock and xid tokens. An xid packs
// seconds, machine id, pid and a counter seeded from crypto/rand, so tokens
// never repeat within a process.
func NewNamer() *Namer {
	return &Namer{
		now:   time.Now,
		token: func() string { return xid.New().String() },
	}
}

// Name returns the filename for an upload. fallbackExt (for example ".png")
// is used when originalName carries no extension.
func (n *Namer) Name(userID, timestamp, originalName, fallbackExt string) string {
	user := clean(userID)
	if user == "" {
		user = AnonymousUser
	}
	ts := clean(timestamp)
	if ts == "" {
		ts = strconv.FormatInt(n.now().Unix(), 10)
	}
	ext := extension(originalName)
	if ext == "" {
		ext = clean(strings.TrimPrefix(fallbackExt, "."))
	}

	name := user + "_" + ts + "_" + n.token()
	if ext != "" {
		name += "." + ext
	}
	return name
}

// extension returns the suffix after the last dot of the base name, case
// preserved and cleaned.
func extension(originalName string) string {
	base := originalName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return clean(strings.TrimPrefix(filepath.Ext(base), "."))
}

// clean strips path separators, traversal sequences and control characters.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}
	return s
}
