package analysis

// ClampConfidence bounds a confidence score to [0,1].
func ClampConfidence(v float64) float64 {
	return clamp(v, 0, 1)
}

// ClampRiskScore bounds a risk score to [1,10].
func ClampRiskScore(v float64) float64 {
	return clamp(v, 1, 10)
}

// ClampHealthScore bounds a health score to [0,100].
func ClampHealthScore(v float64) float64 {
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
