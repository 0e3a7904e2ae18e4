package kaspa

import (
	"errors"
	"strings"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const checksumLength = 8

//nolint:gochecknoglobals // Polymod generator constants
var generator = [5]uint64{0x98f2bc8e61, 0x79b76d99e2, 0xf33e5fb3c4, 0xae2eabe2a8, 0x1e4f43e470}

var (
	errInvalidCharacter  = errors.New("invalid character")
	errMixedCase         = errors.New("mixed case")
	errMissingSeparator  = errors.New("missing prefix separator")
	errInvalidPadding    = errors.New("invalid padding")
	errChecksumMismatch  = errors.New("checksum mismatch")
	errPayloadTooShort   = errors.New("payload too short")
	errUnexpectedPrefix  = errors.New("unexpected prefix")
	errInvalidDataLength = errors.New("invalid data length")
)

//nolint:gochecknoglobals // Reverse charset lookup
var charsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range charset {
		rev[c] = int8(i)
	}
	return rev
}()

func polyMod(values []byte) uint64 {
	c := uint64(1)
	for _, d := range values {
		c0 := c >> 35
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		for i, g := range generator {
			if (c0>>uint(i))&1 == 1 {
				c ^= g
			}
		}
	}
	return c ^ 1
}

func prefixValues(prefix string, data []byte, extra int) []byte {
	values := make([]byte, 0, len(prefix)+1+len(data)+extra)
	for i := 0; i < len(prefix); i++ {
		values = append(values, prefix[i]&0x1f)
	}
	values = append(values, 0)
	return append(values, data...)
}

func checksum(prefix string, data []byte) uint64 {
	values := prefixValues(prefix, data, checksumLength)
	values = append(values, make([]byte, checksumLength)...)
	return polyMod(values)
}

func verifyChecksum(prefix string, data []byte) bool {
	return polyMod(prefixValues(prefix, data, 0)) == 0
}

// convertBits regroups a byte slice from fromBits-wide to toBits-wide groups.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<toBits - 1
	maxAcc := uint32(1)<<(fromBits+toBits-1) - 1

	out := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)
	for _, b := range data {
		acc = ((acc << fromBits) | uint32(b)) & maxAcc
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, errInvalidPadding
	}
	return out, nil
}

// encodeBech32 encodes 8-bit data under prefix with an 8 character checksum.
func encodeBech32(prefix string, data []byte) string {
	grouped, _ := convertBits(data, 8, 5, true)
	cs := checksum(prefix, grouped)

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + len(grouped) + checksumLength)
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, v := range grouped {
		sb.WriteByte(charset[v])
	}
	for i := 0; i < checksumLength; i++ {
		sb.WriteByte(charset[(cs>>(5*uint(checksumLength-1-i)))&31])
	}
	return sb.String()
}

// decodeBech32 returns the prefix and 8-bit data of an encoded string.
func decodeBech32(encoded string) (string, []byte, error) {
	lower := strings.ToLower(encoded)
	if lower != encoded && strings.ToUpper(encoded) != encoded {
		return "", nil, errMixedCase
	}

	sep := strings.LastIndexByte(lower, ':')
	if sep < 1 {
		return "", nil, errMissingSeparator
	}
	prefix, body := lower[:sep], lower[sep+1:]
	if len(body) <= checksumLength {
		return "", nil, errPayloadTooShort
	}

	values := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c >= 128 || charsetRev[c] < 0 {
			return "", nil, errInvalidCharacter
		}
		values[i] = byte(charsetRev[c])
	}

	if !verifyChecksum(prefix, values) {
		return "", nil, errChecksumMismatch
	}

	data, err := convertBits(values[:len(values)-checksumLength], 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return prefix, data, nil
}
