package qncorrections

import "fmt"

// Cut accepts a descriptor when the variable lies inside [Min, Max].
type Cut struct {
	Variable VariableID
	Min      float64
	Max      float64
}

func NewCut(variable VariableID, min, max float64) (Cut, error) {
	if min > max {
		return Cut{}, &ErrConfiguration{
			Component: "cut " + string(variable),
			Reason:    fmt.Sprintf("min %v greater than max %v", min, max),
		}
	}
	return Cut{Variable: variable, Min: min, Max: max}, nil
}

// Accept rejects descriptors that do not carry the variable.
func (c Cut) Accept(vars Variables) bool {
	value, ok := vars.Get(c.Variable)
	if !ok {
		return false
	}
	return value >= c.Min && value <= c.Max
}

type Cuts []Cut

func (cs Cuts) Accept(vars Variables) bool {
	for _, c := range cs {
		if !c.Accept(vars) {
			return false
		}
	}
	return true
}
