package graph

import (
	"fmt"
	"maps"
	"reflect"
)

// Reducer defines how a state value is updated. It takes the current value and
// the new value, and returns the merged value.
type Reducer func(current, new any) (any, error)

// Override marks an update value that bypasses the key's registered reducer
// and replaces the current value wholesale. Nodes that rewrite an accumulated
// field in place (rather than contributing new entries) wrap their value in
// Override.
type Override struct {
	Value any
}

// Replace wraps a value in an Override.
func Replace(v any) Override {
	return Override{Value: v}
}

// MapSchema defines the merge contract for a map[string]any state. Every key
// the graph is allowed to touch must have a registered reducer; an update
// containing an unregistered key is a programming error and fails the run
// rather than being silently merged.
type MapSchema struct {
	Reducers map[string]Reducer
}

// NewMapSchema creates an empty MapSchema.
func NewMapSchema() *MapSchema {
	return &MapSchema{
		Reducers: make(map[string]Reducer),
	}
}

// RegisterReducer adds a reducer for a specific key.
func (s *MapSchema) RegisterReducer(key string, reducer Reducer) {
	s.Reducers[key] = reducer
}

// Init returns an empty state map.
func (s *MapSchema) Init() map[string]any {
	return make(map[string]any)
}

// Update merges an update map into the current state using the registered
// reducers. The current map is never mutated; a fresh copy is returned.
func (s *MapSchema) Update(current, update map[string]any) (map[string]any, error) {
	if current == nil {
		current = make(map[string]any)
	}

	result := make(map[string]any, len(current))
	maps.Copy(result, current)

	for k, v := range update {
		reducer, ok := s.Reducers[k]
		if !ok {
			return nil, fmt.Errorf("update contains unknown state key %q", k)
		}

		if ov, isOverride := v.(Override); isOverride {
			result[k] = ov.Value
			continue
		}

		merged, err := reducer(result[k], v)
		if err != nil {
			return nil, fmt.Errorf("failed to reduce key %s: %w", k, err)
		}
		result[k] = merged
	}

	return result, nil
}

// OverwriteReducer replaces the old value with the new one.
func OverwriteReducer(current, new any) (any, error) {
	return new, nil
}

// AppendReducer concatenates the new value onto the current slice, current
// elements first. It accepts either a slice of the same element type or a
// single element.
func AppendReducer(current, new any) (any, error) {
	if current == nil {
		newVal := reflect.ValueOf(new)
		if newVal.Kind() == reflect.Slice {
			return new, nil
		}
		sliceType := reflect.SliceOf(reflect.TypeOf(new))
		slice := reflect.MakeSlice(sliceType, 0, 1)
		slice = reflect.Append(slice, newVal)
		return slice.Interface(), nil
	}

	currVal := reflect.ValueOf(current)
	newVal := reflect.ValueOf(new)

	if currVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("current value is not a slice")
	}

	if newVal.Kind() == reflect.Slice {
		if currVal.Type().Elem() != newVal.Type().Elem() {
			result := make([]any, 0, currVal.Len()+newVal.Len())
			for i := 0; i < currVal.Len(); i++ {
				result = append(result, currVal.Index(i).Interface())
			}
			for i := 0; i < newVal.Len(); i++ {
				result = append(result, newVal.Index(i).Interface())
			}
			return result, nil
		}
		// Copy into a fresh slice so concurrent branches never share backing
		// arrays with the canonical state.
		out := reflect.MakeSlice(currVal.Type(), 0, currVal.Len()+newVal.Len())
		out = reflect.AppendSlice(out, currVal)
		out = reflect.AppendSlice(out, newVal)
		return out.Interface(), nil
	}

	return reflect.Append(currVal, newVal).Interface(), nil
}
