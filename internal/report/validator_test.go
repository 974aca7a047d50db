package report

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hofra/ingest/internal/config"
)

func newValidator() *Validator {
	return NewValidator(5<<20, config.DefaultAllowedTypes)
}

func TestValidateAcceptsAllowedImages(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
		ext  string
	}{
		{"png", pngImage(t, 16, 16), "image/png", ".png"},
		{"jpeg", jpegImage(t, 0), "image/jpeg", ".jpg"},
		{"webp", webpImage(), "image/webp", ".webp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &Upload{File: bytes.NewReader(tt.data), Size: int64(len(tt.data))}
			mtype, err := newValidator().Validate(u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mtype.String())
			assert.Equal(t, tt.ext, mtype.Extension())

			// The stream is rewound for the storage stage.
			rest, err := io.ReadAll(u.File)
			require.NoError(t, err)
			assert.Equal(t, tt.data, rest)
		})
	}
}

func TestValidateRejectsMissingFile(t *testing.T) {
	v := newValidator()

	_, err := v.Validate(nil)
	assert.ErrorIs(t, err, ErrMissingFile)

	_, err = v.Validate(&Upload{UserID: "7"})
	assert.ErrorIs(t, err, ErrMissingFile)
}

// sniffingForbidden fails the test if the validator reads from it.
type sniffingForbidden struct{ t *testing.T }

func (s sniffingForbidden) Read([]byte) (int, error) {
	s.t.Error("oversized upload was read")
	return 0, io.EOF
}

func (s sniffingForbidden) Seek(int64, int) (int64, error) { return 0, nil }

func TestValidateSizeCheckedBeforeSniffing(t *testing.T) {
	v := newValidator()

	_, err := v.Validate(&Upload{File: sniffingForbidden{t}, Size: 5<<20 + 1})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestValidateSizeBoundary(t *testing.T) {
	data := jpegImage(t, 5<<20)
	require.Len(t, data, 5<<20)

	_, err := newValidator().Validate(&Upload{File: bytes.NewReader(data), Size: int64(len(data))})
	assert.NoError(t, err)
}

func TestValidateRejectsUnsupportedContent(t *testing.T) {
	gif := append([]byte("GIF89a"), make([]byte, 64)...)
	tests := []struct {
		name string
		data []byte
	}{
		{"plain text", textFile()},
		{"gif", gif},
		{"pdf", append([]byte("%PDF-1.7\n"), make([]byte, 64)...)},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValidator().Validate(&Upload{
				File:     bytes.NewReader(tt.data),
				Size:     int64(len(tt.data)),
				Filename: "photo.png",
			})
			assert.ErrorIs(t, err, ErrUnsupportedType)
		})
	}
}

func TestValidateCustomAllowList(t *testing.T) {
	v := NewValidator(1<<20, []string{" IMAGE/PNG "})

	data := pngImage(t, 4, 4)
	_, err := v.Validate(&Upload{File: bytes.NewReader(data), Size: int64(len(data))})
	assert.NoError(t, err)

	data = webpImage()
	_, err = v.Validate(&Upload{File: bytes.NewReader(data), Size: int64(len(data))})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error)       { return 0, errors.New("unexpected EOF") }
func (brokenReader) Seek(int64, int) (int64, error) { return 0, nil }

func TestValidateReadFailureIsMissingFile(t *testing.T) {
	_, err := newValidator().Validate(&Upload{File: brokenReader{}, Size: 10})
	assert.ErrorIs(t, err, ErrMissingFile)
}
