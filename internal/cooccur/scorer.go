package cooccur

import "math"

// Entropy returns the count-weighted (unnormalized) entropy of counts:
// -Σ c·ln(c/total). Zero counts contribute nothing.
func Entropy(counts ...float64) float64 {
	var total float64
	for _, c := range counts {
		total += c
	}

	var sum float64
	for _, c := range counts {
		if c != 0 {
			sum += c * math.Log(c/total)
		}
	}
	return -sum
}

// LogLikelihood returns the G2 statistic for a 2x2 contingency table.
//
//	k11: both events occurred
//	k12: the second event occurred without the first
//	k21: the first event occurred without the second
//	k22: neither occurred
//
// Higher values mean stronger evidence that the events are not independent.
func LogLikelihood(k11, k12, k21, k22 int64) float64 {
	a, b, c, d := float64(k11), float64(k12), float64(k21), float64(k22)

	rowEntropy := Entropy(a, b) + Entropy(c, d)
	columnEntropy := Entropy(a, c) + Entropy(b, d)
	matrixEntropy := Entropy(a, b, c, d)
	return 2 * (matrixEntropy - rowEntropy - columnEntropy)
}
