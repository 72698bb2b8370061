package util_test

import (
	"bytes"
	"strings"
	"testing"

	"campus_hunt_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasAllowedExtension(t *testing.T) {
	allowed := util.AllowedImageExtensions

	assert.True(t, util.HasAllowedExtension("photo.png", allowed))
	assert.True(t, util.HasAllowedExtension("PHOTO.JPG", allowed), "extension check is case-insensitive")
	assert.True(t, util.HasAllowedExtension("a.b.c.jpeg", allowed))
	assert.False(t, util.HasAllowedExtension("notes.txt", allowed))
	assert.False(t, util.HasAllowedExtension("noextension", allowed))
	assert.False(t, util.HasAllowedExtension("", allowed))
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"statue.png", "statue.png"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\windows\\evil.png", "evil.png"},
		{"my photo (1).png", "my_photo__1_.png"},
		{".hidden", "hidden"},
		{"???", "file"},
		{"", "file"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, util.SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestValidateMimeType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)

	mime, err := util.ValidateMimeType(bytes.NewReader(png), []string{util.MimeImage})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	mime, err = util.ValidateMimeType(strings.NewReader("plain words, no pixels"), []string{util.MimeImage})
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(mime, "text/plain"), mime)

	// Content sniffing, not the extension, decides.
	_, err = util.ValidateMimeType(bytes.NewReader(png), []string{"application/pdf"})
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	assert.True(t, util.IsImage("image/png"))
	assert.True(t, util.IsImage("image/jpeg"))
	assert.False(t, util.IsImage("application/pdf"))
}
