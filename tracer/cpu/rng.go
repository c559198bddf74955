package cpu

// Per-pixel linear congruential generator. The state lives in the seed
// buffer so that consecutive launches continue the same sequence.
func lcg(prev *uint32) uint32 {
	*prev = 1664525*(*prev) + 1013904223
	return *prev & 0x00FFFFFF
}

// Generate a random float in [0, 1).
func rnd(prev *uint32) float32 {
	return float32(lcg(prev)) / float32(0x01000000)
}
