package encode

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffPrefix bounds how much of a payload is decoded for detection.
const sniffPrefix = 4096

// SniffImageMIME returns the media type to send for a base64 image payload.
//
// When the decoded bytes are recognized as an image type other than declared,
// the detected type wins. Undecodable or unrecognized payloads keep the
// declared type.
func SniffImageMIME(data, declared string) string {
	raw, err := DecodeBase64Prefix(data, sniffPrefix)
	if err != nil || len(raw) == 0 {
		return declared
	}

	detected := mimetype.Detect(raw)
	if detected == nil {
		return declared
	}

	// Detected strings may carry parameters such as "; charset=utf-8".
	sniffed := detected.String()
	if idx := strings.IndexByte(sniffed, ';'); idx >= 0 {
		sniffed = strings.TrimSpace(sniffed[:idx])
	}
	if !strings.HasPrefix(sniffed, "image/") {
		return declared
	}
	if strings.EqualFold(sniffed, declared) {
		return declared
	}
	return sniffed
}
