package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is one incoming file plus the identity hints sent alongside it.
type Upload struct {
	File      io.ReadSeeker
	Size      int64  // as reported by the transport for this part
	Filename  string // client-side name, used only for its extension
	UserID    string
	Timestamp string
}

// Validator enforces presence, size and content type on an Upload.
type Validator struct {
	maxSize int64
	allowed []string
}

// NewValidator returns a Validator accepting files up to maxSize bytes whose
// sniffed type is one of allowed.
func NewValidator(maxSize int64, allowed []string) *Validator {
	types := make([]string, 0, len(allowed))
	for _, t := range allowed {
		types = append(types, strings.ToLower(strings.TrimSpace(t)))
	}
	return &Validator{maxSize: maxSize, allowed: types}
}

// MaxSize returns the per-file ceiling in bytes.
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate checks u and returns its sniffed type. The size gate runs first so
// oversized files are never read. On success u.File is rewound to the start.
func (v *Validator) Validate(u *Upload) (*mimetype.MIME, error) {
	if u == nil || u.File == nil {
		return nil, ErrMissingFile
	}
	if u.Size > v.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, u.Size, v.maxSize)
	}

	mtype, err := mimetype.DetectReader(u.File)
	if err != nil {
		return nil, fmt.Errorf("%w: read content: %v", ErrMissingFile, err)
	}
	if _, err := u.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind: %v", ErrMissingFile, err)
	}
	if !v.allows(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
	return mtype, nil
}

func (v *Validator) allows(mtype *mimetype.MIME) bool {
	for _, t := range v.allowed {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}
