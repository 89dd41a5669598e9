package server

import (
	"errors"
	"math/rand"
	"strings"
)

// roomCodeAlphabet excludes the visually ambiguous characters I, O,
// 0, 1 so a code read aloud or handwritten is never misentered.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// GenerateRoomCode draws a fresh 6-character code not already present
// in usedCodes.
func GenerateRoomCode(usedCodes map[string]bool) string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		roomCode := string(code)
		if !usedCodes[roomCode] {
			return roomCode
		}
	}
}

// ValidateRoomCode checks a code is exactly 6 characters from the
// room code alphabet.
func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("InvalidId: room code must be exactly 6 characters")
	}
	for _, ch := range code {
		if !strings.ContainsRune(roomCodeAlphabet, ch) {
			return errors.New("InvalidId: room code contains an invalid character")
		}
	}
	return nil
}

// NormalizeRoomCode upper-cases a code as typed by a player.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(code)
}
