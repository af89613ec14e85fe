package alignment

import "encoding/json"

// jsonPair is the {"lhs":[...],"rhs":[...]} shape used for one
// AlignmentPair in an exported alignment file.
type jsonPair struct {
	LHS []string `json:"lhs"`
	RHS []string `json:"rhs"`
}

// ToJSON renders the alignment at complexity <= maxK as
// {"alignment":[{"lhs":[...],"rhs":[...]},...]}, ordered largest-k-first
// to match ToOracleAlignment.
func (g *Graph) ToJSON(maxK int) ([]byte, error) {
	oracle := g.ToOracleAlignment(maxK)

	pairs := make([]jsonPair, 0, len(oracle))
	for _, p := range oracle {
		pairs = append(pairs, jsonPair{LHS: p.Left, RHS: p.Right})
	}

	return json.Marshal(struct {
		Alignment []jsonPair `json:"alignment"`
	}{Alignment: pairs})
}
