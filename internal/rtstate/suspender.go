package rtstate

import "math"

// SuspendDisabled is the target_instret sentinel meaning "never
// suspend" (§4.8).
const SuspendDisabled uint64 = math.MaxUint64

// SingleStepTarget computes the target_instret value that causes
// generated code to stop after exactly one more guest instruction
// (§4.8: "Setting target_instret = instret + 1").
func SingleStepTarget(currentInstret uint64) uint64 {
	return currentInstret + 1
}
