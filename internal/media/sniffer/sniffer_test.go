package sniffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHead  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13}
	jpegHead = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 16, 'J', 'F', 'I', 'F'}
	gifHead  = []byte("GIF89a\x01\x00\x01\x00")
	webpHead = []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
)

func TestSniff(t *testing.T) {
	img, ok := Sniff(pngHead)
	require.True(t, ok)
	assert.Equal(t, Image{Format: FormatPNG, MIME: "image/png"}, img)

	img, ok = Sniff([]byte("GIF87a"))
	require.True(t, ok)
	assert.Equal(t, FormatGIF, img.Format)

	_, ok = Sniff([]byte("plain text"))
	assert.False(t, ok)

	_, ok = Sniff(nil)
	assert.False(t, ok)

	// the signature has to sit at the start
	_, ok = Sniff(append(bytes.Repeat([]byte{' '}, HeadSize), pngHead...))
	assert.False(t, ok)
}

func TestCheckUpload(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		declared string
		head     []byte
		want     Format
		wantErr  error
	}{
		{"jpg extension", "house.JPG", "image/jpeg", jpegHead, FormatJPEG, nil},
		{"jpeg extension without declared type", "house.jpeg", "", jpegHead, FormatJPEG, nil},
		{"image/jpg alias", "house.jpg", "image/jpg", jpegHead, FormatJPEG, nil},
		{"png", "plan.png", "image/png", pngHead, FormatPNG, nil},
		{"gif with params", "anim.gif", "image/gif; charset=binary", gifHead, FormatGIF, nil},
		{"octet stream declared", "plan.png", "application/octet-stream", pngHead, FormatPNG, nil},
		{"webp not allowed", "pic.webp", "image/webp", webpHead, "", ErrNotAllowed},
		{"webp renamed", "pic.png", "image/png", webpHead, "", ErrNotAllowed},
		{"exe renamed", "virus.png", "image/png", []byte("MZ\x90\x00"), "", ErrNotAllowed},
		{"extension mismatch", "plan.gif", "image/gif", pngHead, "", ErrTypeMismatch},
		{"declared mismatch", "plan.png", "image/jpeg", pngHead, "", ErrTypeMismatch},
		{"jpg alias on png", "plan.png", "image/jpg", pngHead, "", ErrTypeMismatch},
		{"no extension", "plan", "image/png", pngHead, "", ErrNotAllowed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := CheckUpload(tc.filename, tc.declared, tc.head)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, img.Format)
		})
	}
}
