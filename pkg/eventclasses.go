package qncorrections

import (
	"fmt"
	"sort"
)

// OutOfRange is returned by Classify when any variable falls outside its binning.
const OutOfRange = -1

// EventClassVariable bins one descriptor variable with non uniform edges.
// Bins are [lo, hi) except the last one, which includes its upper edge.
type EventClassVariable struct {
	Variable VariableID
	Label    string
	Edges    []float64
}

func NewEventClassVariable(variable VariableID, label string, edges []float64) (EventClassVariable, error) {
	if len(edges) < 2 {
		return EventClassVariable{}, &ErrConfiguration{
			Component: "event class variable " + string(variable),
			Reason:    "at least two bin edges are required",
		}
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return EventClassVariable{}, &ErrConfiguration{
				Component: "event class variable " + string(variable),
				Reason:    fmt.Sprintf("bin edges not strictly increasing at index %d", i),
			}
		}
	}
	e := make([]float64, len(edges))
	copy(e, edges)
	return EventClassVariable{Variable: variable, Label: label, Edges: e}, nil
}

// NewEventClassVariableFromPairs expands the compact binning description
// {{min, nPairs}, {edge, nBinsSincePreviousEdge}, ...} into explicit edges.
// For example {{-10,4},{-7,1},{7,8},{10,1}} gives ten bins between -10 and 10.
func NewEventClassVariableFromPairs(variable VariableID, label string, pairs [][2]float64) (EventClassVariable, error) {
	component := "event class variable " + string(variable)
	if len(pairs) < 2 {
		return EventClassVariable{}, &ErrConfiguration{Component: component, Reason: "at least two binning pairs are required"}
	}
	if int(pairs[0][1]) != len(pairs) {
		return EventClassVariable{}, &ErrConfiguration{
			Component: component,
			Reason:    fmt.Sprintf("first pair announces %d entries but %d were given", int(pairs[0][1]), len(pairs)),
		}
	}
	edges := []float64{pairs[0][0]}
	for i := 1; i < len(pairs); i++ {
		lo := edges[len(edges)-1]
		hi := pairs[i][0]
		n := int(pairs[i][1])
		if n < 1 || !(hi > lo) {
			return EventClassVariable{}, &ErrConfiguration{
				Component: component,
				Reason:    fmt.Sprintf("invalid binning pair %v", pairs[i]),
			}
		}
		width := (hi - lo) / float64(n)
		for k := 1; k < n; k++ {
			edges = append(edges, lo+float64(k)*width)
		}
		edges = append(edges, hi)
	}
	return NewEventClassVariable(variable, label, edges)
}

func (v EventClassVariable) NBins() int {
	return len(v.Edges) - 1
}

func (v EventClassVariable) Min() float64 { return v.Edges[0] }
func (v EventClassVariable) Max() float64 { return v.Edges[len(v.Edges)-1] }

// BinOf returns the bin holding x or OutOfRange.
func (v EventClassVariable) BinOf(x float64) int {
	n := v.NBins()
	if x != x || x < v.Min() || x > v.Max() {
		return OutOfRange
	}
	if x == v.Max() {
		return n - 1
	}
	// first edge strictly above x closes the containing bin
	i := sort.Search(len(v.Edges), func(i int) bool { return v.Edges[i] > x })
	return i - 1
}

// EventClassVariablesSet is the multi-dimensional binning shared by the
// configurations that calibrate in the same event classes.
type EventClassVariablesSet struct {
	name      string
	variables []EventClassVariable
	totalBins int
}

func NewEventClassVariablesSet(name string, variables ...EventClassVariable) (*EventClassVariablesSet, error) {
	if len(variables) == 0 {
		return nil, &ErrConfiguration{Component: "event class set " + name, Reason: "no variables"}
	}
	total := 1
	for _, v := range variables {
		if v.NBins() < 1 {
			return nil, &ErrConfiguration{Component: "event class set " + name, Reason: "variable without bins: " + string(v.Variable)}
		}
		total *= v.NBins()
	}
	vars := make([]EventClassVariable, len(variables))
	copy(vars, variables)
	return &EventClassVariablesSet{name: name, variables: vars, totalBins: total}, nil
}

func (s *EventClassVariablesSet) Name() string { return s.name }

func (s *EventClassVariablesSet) TotalBins() int { return s.totalBins }

func (s *EventClassVariablesSet) Variables() []EventClassVariable { return s.variables }

// Classify combines the per-variable bins in declaration order, the first
// variable varying fastest.
func (s *EventClassVariablesSet) Classify(vars Variables) int {
	bin := 0
	stride := 1
	for _, v := range s.variables {
		x, ok := vars.Get(v.Variable)
		if !ok {
			return OutOfRange
		}
		i := v.BinOf(x)
		if i == OutOfRange {
			return OutOfRange
		}
		bin += i * stride
		stride *= v.NBins()
	}
	return bin
}

// Coordinates decodes a bin index back into per-variable bins.
func (s *EventClassVariablesSet) Coordinates(bin int) []int {
	if bin < 0 || bin >= s.totalBins {
		return nil
	}
	coords := make([]int, len(s.variables))
	for i, v := range s.variables {
		coords[i] = bin % v.NBins()
		bin /= v.NBins()
	}
	return coords
}
