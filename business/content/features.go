package content

import (
	"hash/fnv"
)

// hashToUnit deterministically hashes a string into [0, 1].
func hashToUnit(s string) float64 {
	if s == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32()) / float64(^uint32(0))
}

// visitorAffinity is a stable per-visitor preference for a candidate in a slot.
func visitorAffinity(visitorID, slot, contentID string) float64 {
	return hashToUnit(visitorID + "|" + slot + "|" + contentID)
}
