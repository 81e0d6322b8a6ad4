package command

import (
	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/value"
)

// valueListFrom builds the List(Any) handed to an unnamed-sink
// parameter (§4.E).
func valueListFrom(items []value.Value) (value.Value, error) {
	lst := container.NewList(value.Any)
	if err := lst.Append(items...); err != nil {
		return nil, err
	}
	return lst, nil
}

// valueDictFrom builds the Dict(String, Any) handed to a named-sink
// parameter (§4.E).
func valueDictFrom(items map[string]value.Value) (value.Value, error) {
	dict, err := container.NewDict(value.String, value.Any)
	if err != nil {
		return nil, err
	}
	for k, v := range items {
		if err := dict.Insert(value.NewString(k), v); err != nil {
			return nil, err
		}
	}
	return dict, nil
}
