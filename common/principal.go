package common

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

var ErrInvalidPrincipal = errors.New("invalid principal")

const maxPrincipalLen = 29

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is a ledger-side identity in its canonical textual form:
// base32(crc32(raw) || raw), lower case, dash separated groups of five.
type Principal string

func PrincipalFromBytes(raw []byte) (Principal, error) {
	if len(raw) > maxPrincipalLen {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidPrincipal, len(raw))
	}

	buf := make([]byte, 4+len(raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(raw))
	copy(buf[4:], raw)

	enc := strings.ToLower(principalEncoding.EncodeToString(buf))
	var sb strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			sb.WriteByte('-')
		}
		end := min(i+5, len(enc))
		sb.WriteString(enc[i:end])
	}
	return Principal(sb.String()), nil
}

// ParsePrincipal checks the checksum and grouping of s.
func ParsePrincipal(s string) (Principal, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	raw, err := principalEncoding.DecodeString(strings.ToUpper(strings.ReplaceAll(lower, "-", "")))
	if err != nil || len(raw) < 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrincipal, s)
	}

	if binary.BigEndian.Uint32(raw[:4]) != crc32.ChecksumIEEE(raw[4:]) {
		return "", fmt.Errorf("%w: checksum mismatch in %q", ErrInvalidPrincipal, s)
	}

	p, err := PrincipalFromBytes(raw[4:])
	if err != nil {
		return "", err
	}
	if string(p) != lower {
		return "", fmt.Errorf("%w: non-canonical %q", ErrInvalidPrincipal, s)
	}
	return p, nil
}

func MustPrincipal(s string) Principal {
	p, err := ParsePrincipal(s)
	if err != nil {
		panic(err)
	}
	return p
}

// RandPrincipal returns a self-authenticating style principal for tests.
func RandPrincipal() Principal {
	raw := append(RandBytes(28), 0x02)
	p, _ := PrincipalFromBytes(raw)
	return p
}

func (p Principal) String() string {
	return string(p)
}
