package pricing

import "math"

// =============================================================================
// LONG-STAY WEIGHTING
// =============================================================================

// LongStay is the block/decay discount schedule for long bookings.
type LongStay struct {
	BlockDays int     // days per block
	Factor    float64 // weight multiplier per block step (0.9 = 10% off)
	CapBlocks int     // steps after which the discount stops deepening
}

// WeightedDays converts a raw day count into billable day weight. Block i
// (0-based) of up to BlockDays days weighs Factor^min(i, CapBlocks) per day,
// so the first block is always full price.
//
// With the defaults (10, 0.9, 2): 12 days weigh 10 + 2*0.9 = 11.8.
func WeightedDays(ls LongStay, days int) float64 {
	block := max(1, ls.BlockDays)
	capBlocks := max(0, ls.CapBlocks)

	total := 0.0
	remaining := days
	for i := 0; remaining > 0; i++ {
		chunk := min(block, remaining)
		total += float64(chunk) * math.Pow(ls.Factor, float64(min(i, capBlocks)))
		remaining -= chunk
	}
	return total
}
