package encode

import (
	"encoding/base64"
	"strings"
)

func DecodeBase64String(value string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(value)
}

func EncodeBase64String(value []byte) string {
	return base64.StdEncoding.EncodeToString(value)
}

// DecodeBase64Prefix decodes at most the first limit characters of value,
// rounded down to a whole base64 quantum. Padding in the middle of the input
// is treated as an error.
func DecodeBase64Prefix(value string, limit int) ([]byte, error) {
	value = strings.TrimSpace(value)
	if limit > 0 && len(value) > limit {
		value = value[:limit-limit%4]
	}
	return DecodeBase64String(value)
}
