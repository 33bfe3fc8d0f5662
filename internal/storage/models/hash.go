package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// DeckHash returns the identity of a deck built from the given card instances.
// Slot order does not affect the result.
func DeckHash(instanceHashes [DeckSize]string) string {
	sorted := make([]string, DeckSize)
	copy(sorted, instanceHashes[:])
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(sum[:])
}

// InstanceHash returns the identity of a card instance.
func InstanceHash(cardTypeID, level int64, evolutionLevel *int64) string {
	evo := "-"
	if evolutionLevel != nil {
		evo = fmt.Sprintf("%d", *evolutionLevel)
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d:%s", cardTypeID, level, evo)))
	return hex.EncodeToString(sum[:])
}
