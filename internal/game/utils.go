package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"strings"
)

// GenerateRoomCode creates a random room code
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = RoomCodeChars[rand.Intn(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// UniqueRoomCode draws codes until exists reports a free one. The caller must
// hold whatever lock makes exists authoritative.
func UniqueRoomCode(exists func(code string) bool) string {
	for {
		code := GenerateRoomCode()
		if !exists(code) {
			return code
		}
	}
}

// NormalizeRoomCode upper-cases and trims user-entered codes
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode reports whether code has the shape of a room code
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(RoomCodeChars, rune(code[i])) {
			return false
		}
	}
	return true
}

// CleanName trims and caps a display name
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > MaxNameLength {
		name = string(r[:MaxNameLength])
	}
	return name
}
