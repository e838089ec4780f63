// Package identity derives and persists the per-client anonymous identity:
// an opaque session id plus an icon drawn from a fixed table. The session id
// is never shown to other participants.
package identity

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// AssistantSeed is the reserved seed for the system/AI participant, so its
// icon renders identically on every client.
const AssistantSeed = "byts-assistant"

// icons is the fixed icon table. The seed->icon mapping hashes into this
// slice, so its order must never change between builds.
var icons = []string{
	"fox",
	"owl",
	"panda",
	"koala",
	"tiger",
	"penguin",
	"dolphin",
	"raccoon",
	"hedgehog",
	"otter",
	"lynx",
	"falcon",
}

// displayNames maps each icon to the name shown next to it.
var displayNames = map[string]string{
	"fox":      "Anonymous Fox",
	"owl":      "Anonymous Owl",
	"panda":    "Anonymous Panda",
	"koala":    "Anonymous Koala",
	"tiger":    "Anonymous Tiger",
	"penguin":  "Anonymous Penguin",
	"dolphin":  "Anonymous Dolphin",
	"raccoon":  "Anonymous Raccoon",
	"hedgehog": "Anonymous Hedgehog",
	"otter":    "Anonymous Otter",
	"lynx":     "Anonymous Lynx",
	"falcon":   "Anonymous Falcon",
}

// Icons returns a copy of the icon table.
func Icons() []string {
	out := make([]string, len(icons))
	copy(out, icons)
	return out
}

// ValidIcon reports whether icon is in the table.
func ValidIcon(icon string) bool {
	_, ok := displayNames[icon]
	return ok
}

// DeriveIcon deterministically maps a seed to an icon. The same seed always
// yields the same icon.
func DeriveIcon(seed string) string {
	h := fnv.New32a()
	h.Write([]byte(seed))
	return icons[h.Sum32()%uint32(len(icons))]
}

// DisplayName returns the participant name derived from an icon. Unknown
// icons fall back to a generic name rather than failing.
func DisplayName(icon string) string {
	if name, ok := displayNames[icon]; ok {
		return name
	}
	return "Anonymous"
}

// NewSessionID generates a fresh opaque session id.
func NewSessionID() string {
	return uuid.New().String()
}
