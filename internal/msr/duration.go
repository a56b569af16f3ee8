package msr

import "math/big"

// Durations are exact fractions of a whole note.

func WholeNotes(num, den int64) *big.Rat {
	if den == 0 {
		return new(big.Rat)
	}
	return big.NewRat(num, den)
}

// TimeSignature returns the bar duration of beats/beatType.
func TimeSignature(beats, beatType int) *big.Rat {
	if beats <= 0 || beatType <= 0 {
		return big.NewRat(1, 1)
	}
	return big.NewRat(int64(beats), int64(beatType))
}

func cloneRat(r *big.Rat) *big.Rat {
	if r == nil {
		return nil
	}
	return new(big.Rat).Set(r)
}

func ratOrZero(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return r
}
