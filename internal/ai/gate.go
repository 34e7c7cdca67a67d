package ai

// ShouldEscalate reports whether a structural parse is weak enough to be
// worth an AI pass. The boundary is inclusive: exactly threshold null
// leaves escalates.
func ShouldEscalate(nullLeaves, threshold int) bool {
	return nullLeaves >= threshold
}
