package matching

// singleSourceCap is the ceiling on confidence when the roster is the only
// agreeing evidence source. Roster text alone supports a candidate but
// cannot certify identity.
const singleSourceCap = 0.85

// corroborationBoost is added per additional agreeing source once at least
// two sources agree in total.
const corroborationBoost = 0.05

// CalculateConfidence combines a fuzzy similarity score with corroboration
// flags into a single calibrated confidence in [0,1]. It is pure: identical
// inputs always yield identical outputs.
//
// Rules, in order:
//   - no roster match: 0.0 regardless of any other signal
//   - roster only: min(fuzzyScore, 0.85)
//   - roster plus N agreeing secondary sources: fuzzyScore + 0.05*N,
//     clamped to 1.0
func CalculateConfidence(fuzzyScore float64, rosterMatch bool, secondaryMatches ...bool) float64 {
	if !rosterMatch {
		return 0.0
	}

	agreeing := 0
	for _, matched := range secondaryMatches {
		if matched {
			agreeing++
		}
	}

	if agreeing == 0 {
		if fuzzyScore > singleSourceCap {
			return singleSourceCap
		}
		return fuzzyScore
	}

	confidence := fuzzyScore + corroborationBoost*float64(agreeing)
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
