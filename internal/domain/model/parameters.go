package model

// ParameterSet is one sampling configuration applied to a generation call.
type ParameterSet struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// ParameterCombinations returns the Cartesian product of temperatures and topPs.
// Temperature is the outer loop; result positions depend on this order.
// Duplicates are kept.
func ParameterCombinations(temperatures, topPs []float64) []ParameterSet {
	out := make([]ParameterSet, 0, len(temperatures)*len(topPs))
	for _, t := range temperatures {
		for _, p := range topPs {
			out = append(out, ParameterSet{Temperature: t, TopP: p})
		}
	}
	return out
}
