package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const roomIDLength = 7

var roomIDSpace = new(big.Int).Exp(big.NewInt(36), big.NewInt(roomIDLength), nil) //nolint: gochecknoglobals // constant

// GenerateRoomID - generates a short base36 identifier for the room.
func GenerateRoomID() (string, error) {
	n, err := rand.Int(rand.Reader, roomIDSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}

	id := strconv.FormatInt(n.Int64(), 36)

	return strings.Repeat("0", roomIDLength-len(id)) + id, nil
}

// GenerateConnectionID - generates a unique identifier for a websocket connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
