package turn

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
)

// Rand is the subset of *rand.Rand (math/rand/v2) the lottery draws from.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// RandomOrder returns a Fisher-Yates shuffle of ids. The input is not modified.
func RandomOrder(ids []uuid.UUID, rng Rand) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DefaultLotteryWeights gives the first id the most tickets: n, n-1, ..., 1.
func DefaultLotteryWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = float64(n - i)
	}
	return w
}

// WeightedLotteryOrder draws ids without replacement, each draw proportional
// to the remaining weights. A nil weights slice uses DefaultLotteryWeights.
func WeightedLotteryOrder(ids []uuid.UUID, weights []float64, rng Rand) ([]uuid.UUID, error) {
	if weights == nil {
		weights = DefaultLotteryWeights(len(ids))
	}
	if len(weights) != len(ids) {
		return nil, drafterr.Validation(fmt.Sprintf("lottery needs %d weights, got %d", len(ids), len(weights)))
	}
	for i, w := range weights {
		if w <= 0 {
			return nil, drafterr.Validation(fmt.Sprintf("lottery weight %d must be positive", i))
		}
	}

	remaining := append([]uuid.UUID(nil), ids...)
	remainingWeights := append([]float64(nil), weights...)
	result := make([]uuid.UUID, 0, len(ids))

	for len(remaining) > 0 {
		var total float64
		for _, w := range remainingWeights {
			total += w
		}
		r := rng.Float64() * total

		// float rounding can leave r marginally positive after the loop
		chosen := len(remaining) - 1
		for i, w := range remainingWeights {
			r -= w
			if r <= 0 {
				chosen = i
				break
			}
		}

		result = append(result, remaining[chosen])
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
		remainingWeights = append(remainingWeights[:chosen], remainingWeights[chosen+1:]...)
	}
	return result, nil
}
