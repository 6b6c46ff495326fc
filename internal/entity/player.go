package entity

import "strings"

const botIDPrefix = "bot:"

// BotID - connection id the autonomous opponent occupies in a room.
func BotID(roomID string) string {
	return botIDPrefix + roomID
}

func IsBotID(connID string) bool {
	return strings.HasPrefix(connID, botIDPrefix)
}
