// Package sniffer checks uploaded images by their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
	"mime"
	"path"
	"strings"
)

// HeadSize is how many leading bytes Sniff looks at.
const HeadSize = 512

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
)

var (
	ErrNotAllowed   = errors.New("only image files are allowed (jpeg, jpg, png, gif)")
	ErrTypeMismatch = errors.New("file content does not match its declared type")
)

type signature struct {
	format Format
	mime   string
	magics [][]byte
}

var signatures = []signature{
	{FormatJPEG, "image/jpeg", [][]byte{{0xff, 0xd8, 0xff}}},
	{FormatPNG, "image/png", [][]byte{{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}}},
	{FormatGIF, "image/gif", [][]byte{[]byte("GIF87a"), []byte("GIF89a")}},
}

var formatByExt = map[string]Format{
	".jpeg": FormatJPEG,
	".jpg":  FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
}

// Image is an accepted upload format.
type Image struct {
	Format Format
	MIME   string
}

// Sniff matches head against the known image signatures.
func Sniff(head []byte) (Image, bool) {
	if len(head) > HeadSize {
		head = head[:HeadSize]
	}
	for _, sig := range signatures {
		for _, magic := range sig.magics {
			if bytes.HasPrefix(head, magic) {
				return Image{Format: sig.format, MIME: sig.mime}, true
			}
		}
	}
	return Image{}, false
}

// CheckUpload accepts an image only when extension, declared content type and
// content agree. An empty or application/octet-stream declaration is ignored.
func CheckUpload(filename, declaredContentType string, head []byte) (Image, error) {
	want, ok := formatByExt[strings.ToLower(path.Ext(filename))]
	if !ok {
		return Image{}, ErrNotAllowed
	}
	img, ok := Sniff(head)
	if !ok {
		return Image{}, ErrNotAllowed
	}
	if img.Format != want {
		return Image{}, ErrTypeMismatch
	}

	switch declared := declaredMIME(declaredContentType); declared {
	case "", "application/octet-stream", img.MIME:
	case "image/jpg":
		if img.Format != FormatJPEG {
			return Image{}, ErrTypeMismatch
		}
	default:
		return Image{}, ErrTypeMismatch
	}
	return img, nil
}

func declaredMIME(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(contentType)
}
