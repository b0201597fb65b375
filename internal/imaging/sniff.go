package imaging

import "net/http"

// sniffedTypes is the set of MIME types recognised by magic-byte sniffing.
// net/http.DetectContentType handles JPEG, PNG, and GIF. WebP is detected
// separately because the WHATWG sniff spec (and therefore the stdlib) does not
// include a WebP signature.
var sniffedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// Sniff returns the MIME type of an accepted image format, or ("", false)
// when data is not one.
func Sniff(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if _, ok := sniffedTypes[mime]; ok {
		return mime, true
	}
	return "", false
}

// Extension is the file extension, without the dot, for a MIME type returned
// by Sniff. Anything else maps to "bin".
func Extension(mime string) string {
	if ext, ok := sniffedTypes[mime]; ok {
		return ext
	}
	return "bin"
}
