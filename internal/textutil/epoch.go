package textutil

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	apperrors "tbsu/internal/errors"
)

// epochOffset rebases unix seconds to 1925-01-01 UTC
const epochOffset = 1420070400

// Epoch64Len is the length of an encoded timestamp
const Epoch64Len = 6

var (
	// MinEpoch64 is the earliest encodable time
	MinEpoch64 = time.Unix(-epochOffset, 0).UTC()
	// MaxEpoch64 is the latest encodable time
	MaxEpoch64 = time.Unix(1<<32-1-epochOffset, 0).UTC()
)

// EncodeEpoch64 stores t as a 6 character URL-safe string with second
// precision. Times outside MinEpoch64..MaxEpoch64 cannot be encoded.
func EncodeEpoch64(t time.Time) (string, error) {
	seconds := t.Unix() + epochOffset
	if seconds < 0 || seconds > 1<<32-1 {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("time %s is outside %s..%s", t.UTC().Format(time.RFC3339), MinEpoch64.Format(time.RFC3339), MaxEpoch64.Format(time.RFC3339)), nil)
	}

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(seconds))
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// DecodeEpoch64 reverses EncodeEpoch64 and returns the time in UTC
func DecodeEpoch64(code string) (time.Time, error) {
	if len(code) != Epoch64Len {
		return time.Time{}, apperrors.NewParsingError(
			fmt.Sprintf("epoch code %q must be %d characters", code, Epoch64Len), nil)
	}

	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return time.Time{}, apperrors.NewParsingError(fmt.Sprintf("invalid epoch code %q", code), err)
	}

	seconds := int64(binary.BigEndian.Uint32(raw)) - epochOffset
	return time.Unix(seconds, 0).UTC(), nil
}
