package game

import (
	"math/rand"

	"github.com/google/uuid"
)

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

func randomItem(items []string) string {
	return items[rand.Intn(len(items))]
}

func randomAvatar() int {
	return rand.Intn(99) + 1
}
