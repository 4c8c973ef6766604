package entity

// Side-effect record status constants
const (
	SideEffectStatusPending   = "PENDING"
	SideEffectStatusCompleted = "COMPLETED"
	SideEffectStatusFailed    = "FAILED"
	SideEffectStatusDiscarded = "DISCARDED"
)

// Means-of-travel constants for TravelRequestPayload
const (
	TravelMeansGround = "GROUND"
	TravelMeansAir    = "AIR"
	TravelMeansMixed  = "MIXED"
)
