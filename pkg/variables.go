package qncorrections

// VariableID names one entry of an event or sample descriptor.
type VariableID string

const (
	VtxX        VariableID = "VtxX"
	VtxY        VariableID = "VtxY"
	VtxZ        VariableID = "VtxZ"
	CentralityV VariableID = "CentralityV0M"
	Pt          VariableID = "Pt"
	Eta         VariableID = "Eta"
	DcaXY       VariableID = "DcaXY"
	DcaZ        VariableID = "DcaZ"
	TPCnCls     VariableID = "TPCnCls"
	TPCchi2     VariableID = "TPCchi2"
)

// Variables is a descriptor record: event-level values such as vertex and
// centrality, or per-track values evaluated by cuts.
type Variables map[VariableID]float64

func (v Variables) Get(id VariableID) (float64, bool) {
	value, ok := v[id]
	return value, ok
}

// VariablesFromMap converts a string keyed map as decoded from JSON.
func VariablesFromMap(m map[string]float64) Variables {
	vars := make(Variables, len(m))
	for k, value := range m {
		vars[VariableID(k)] = value
	}
	return vars
}
