package constants

import "bytes"

// DocumentFormat is the sniffed kind of a downloaded document.
type DocumentFormat string

const (
	FormatPDF     DocumentFormat = "PDF"
	FormatImage   DocumentFormat = "IMAGE"
	FormatUnknown DocumentFormat = "UNKNOWN"
)

// Magic-byte prefixes for the formats the extractor accepts.
var (
	pdfMagic  = []byte("%PDF")
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	gifMagic  = []byte("GIF8")
	bmpMagic  = []byte("BM")
	riffMagic = []byte("RIFF") // WEBP container
	tiffLE    = []byte{'I', 'I', 0x2a, 0x00}
	tiffBE    = []byte{'M', 'M', 0x00, 0x2a}
)

// SniffFormat classifies content by its magic bytes. Content that matches
// nothing is UNKNOWN, and callers decide a fallback.
func SniffFormat(content []byte) DocumentFormat {
	switch {
	case bytes.HasPrefix(content, pdfMagic):
		return FormatPDF
	case bytes.HasPrefix(content, pngMagic),
		bytes.HasPrefix(content, jpegMagic),
		bytes.HasPrefix(content, gifMagic),
		bytes.HasPrefix(content, bmpMagic),
		bytes.HasPrefix(content, tiffLE),
		bytes.HasPrefix(content, tiffBE),
		isWEBP(content):
		return FormatImage
	default:
		return FormatUnknown
	}
}

func isWEBP(content []byte) bool {
	return len(content) >= 12 &&
		bytes.HasPrefix(content, riffMagic) &&
		bytes.Equal(content[8:12], []byte("WEBP"))
}

// ImageMIMEType returns the data-URL media type for an image payload.
// Unrecognized bytes are labelled PNG, which vision endpoints tolerate.
func ImageMIMEType(content []byte) string {
	switch {
	case bytes.HasPrefix(content, jpegMagic):
		return "image/jpeg"
	case bytes.HasPrefix(content, gifMagic):
		return "image/gif"
	case bytes.HasPrefix(content, bmpMagic):
		return "image/bmp"
	case bytes.HasPrefix(content, tiffLE), bytes.HasPrefix(content, tiffBE):
		return "image/tiff"
	case isWEBP(content):
		return "image/webp"
	default:
		return "image/png"
	}
}
