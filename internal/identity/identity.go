// Package identity computes stable, path-derived 128-bit identifiers for
// definitions.
//
// An identifier is assigned once, when a definition is loaded without one,
// and is never recomputed afterwards: renaming a definition keeps the
// identifier it was first given.
package identity

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strconv"

	"golang.org/x/text/encoding/unicode"
)

// Identifier is a 128-bit id split into four 32-bit words.
type Identifier struct {
	A, B, C, D uint32
}

// IsValid reports whether any word is non-zero.
func (id Identifier) IsValid() bool {
	return id.A|id.B|id.C|id.D != 0
}

func (id Identifier) String() string {
	return fmt.Sprintf("%08X%08X%08X%08X", id.A, id.B, id.C, id.D)
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse reads the 32 hex digit form produced by String. The empty string
// parses to the invalid zero identifier.
func Parse(s string) (Identifier, error) {
	if s == "" {
		return Identifier{}, nil
	}
	if len(s) != 32 {
		return Identifier{}, fmt.Errorf("identifier %q: want 32 hex digits, got %d", s, len(s))
	}
	var words [4]uint32
	for i := range words {
		v, err := strconv.ParseUint(s[i*8:(i+1)*8], 16, 32)
		if err != nil {
			return Identifier{}, fmt.Errorf("identifier %q: %w", s, err)
		}
		words[i] = uint32(v)
	}
	return Identifier{A: words[0], B: words[1], C: words[2], D: words[3]}, nil
}

// Identifiable is anything that carries an identifier and a stable path.
type Identifiable interface {
	PathName() string
	Identifier() Identifier
	SetIdentifier(Identifier)
}

// Assign gives target a deterministic identifier if it has none and returns
// the identifier it ends up with. A valid identifier is never replaced.
func Assign(target Identifiable) Identifier {
	if id := target.Identifier(); id.IsValid() {
		return id
	}
	id := Compute(target.PathName())
	target.SetIdentifier(id)
	return id
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Compute derives the identifier for a path: SHA-1 over the UTF-16LE bytes
// of the path, read as five little-endian words, keeping words one to four.
func Compute(path string) Identifier {
	sum := sha1.Sum(utf16Bytes(path))
	return Identifier{
		A: binary.LittleEndian.Uint32(sum[4:8]),
		B: binary.LittleEndian.Uint32(sum[8:12]),
		C: binary.LittleEndian.Uint32(sum[12:16]),
		D: binary.LittleEndian.Uint32(sum[16:20]),
	}
}

func utf16Bytes(s string) []byte {
	encoded, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}

// NameCRC is the CRC-32 of name taken over its UTF-16 code units, each
// widened to four little-endian bytes.
func NameCRC(name string) uint32 {
	units := utf16Bytes(name)
	wide := make([]byte, 0, len(units)*2)
	for i := 0; i+1 < len(units); i += 2 {
		wide = append(wide, units[i], units[i+1], 0, 0)
	}
	return crc32.ChecksumIEEE(wide)
}

// UniqueName derives the deterministic rename used when a sub-object moves
// to a new owner: "<name>__<NameCRC>". ok is false when isUnique rejects
// the derived name.
func UniqueName(name string, isUnique func(string) bool) (string, bool) {
	derived := fmt.Sprintf("%s__%08X", name, NameCRC(name))
	if isUnique != nil && !isUnique(derived) {
		return "", false
	}
	return derived, true
}
