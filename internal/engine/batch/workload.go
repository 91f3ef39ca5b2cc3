package batch

import "math"

// DefaultIterations is the inner loop count of ExpensiveOperation.
const DefaultIterations = 1000

// Sequence returns the batch 0..n-1. A negative n yields an empty batch.
func Sequence(n int) []int {
	if n <= 0 {
		return []int{}
	}
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

// SqrtSquare returns sqrt(n*n), a cheap per-item computation.
func SqrtSquare(n int) float64 {
	x := float64(n)
	return math.Sqrt(x * x)
}

// ExpensiveOperation returns a CPU-bound computation that iterates
// r = sqrt(r*r + i) for i in [0, iterations).
func ExpensiveOperation(iterations int) ComputeFunc[int, float64] {
	return Pure(func(n int) float64 {
		r := float64(n)
		for i := range iterations {
			r = math.Sqrt(r*r + float64(i))
		}
		return r
	})
}
