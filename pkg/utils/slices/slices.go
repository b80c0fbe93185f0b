package slices

import "sort"

// Map converts each element of sli with mapper, keeping order.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// MapUntilError maps over sli with mapper.
//
// If mapper causes error, it stops there and returns (nil, error).
// Otherwise, it returns (mapping result, nil).
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// First finds the first element satisfying pred.
//
// When no elements satisfy pred, it returns (zero-value, false).
func First[T any](sli []T, pred func(v T) bool) (T, bool) {
	for _, v := range sli {
		if pred(v) {
			return v, true
		}
	}
	return *new(T), false
}

// Filter picks up elements satisfying pred, keeping order.
func Filter[T any](sli []T, pred func(v T) bool) []T {
	ret := []T{}
	for _, v := range sli {
		if pred(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// Contains returns true when sli has at least one element satisfying pred.
func Contains[T any](sli []T, pred func(v T) bool) bool {
	_, ok := First(sli, pred)
	return ok
}

// KeysOf returns keys of m, sorted.
func KeysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Concat joins slices into a new one.
func Concat[T any](slis ...[]T) []T {
	ret := []T{}
	for _, s := range slis {
		ret = append(ret, s...)
	}
	return ret
}
