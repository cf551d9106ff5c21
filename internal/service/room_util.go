package service

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"
)

const (
	ROOM_CODE_LENGTH = 4
	// 去掉了 0/O、1/I 等容易混淆的字符
	ROOM_CODE_ALPHABET = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	MAX_ROOMS = 512

	allocateAttempts = 32
)

var errRoomCodeExhausted = errors.New("无法分配房间码")

func generateRoomCode() (string, error) {
	var b strings.Builder

	alphabetSize := big.NewInt(int64(len(ROOM_CODE_ALPHABET)))

	for i := 0; i < ROOM_CODE_LENGTH; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}

		b.WriteByte(ROOM_CODE_ALPHABET[n.Int64()])
	}

	return b.String(), nil
}

func allocateRoomCode(taken func(string) bool) (string, error) {
	for i := 0; i < allocateAttempts; i++ {
		code, err := generateRoomCode()
		if err != nil {
			return "", err
		}

		if !taken(code) {
			return code, nil
		}
	}

	return "", errRoomCodeExhausted
}

func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// isRoomValid 已结束的房间保留一个清理周期，让副本看到结局
func isRoomValid(room *roomEntry, now time.Time, opts RoomOptions) bool {
	if room == nil {
		return false
	}

	idle := now.Sub(room.machine.LastActivity())

	if room.machine.IsFinished() && idle >= opts.CleanupInterval {
		return false
	}

	if opts.IdleTimeout > 0 && idle >= opts.IdleTimeout {
		return false
	}

	return true
}
