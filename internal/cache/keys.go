package cache

// KeyActivePricingSet is the Redis key holding the currently active pricing
// configuration. There is exactly one active set platform-wide.
func KeyActivePricingSet() string {
	return "pricing:active"
}

// KeyDistance returns the cache key for a computed road distance between two
// place IDs. Keys are directional since the provider may return asymmetric
// routes.
func KeyDistance(originPlaceID, destinationPlaceID string) string {
	return "geo:distance:" + originPlaceID + ":" + destinationPlaceID
}
