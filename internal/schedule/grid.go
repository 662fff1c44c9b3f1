// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package schedule

// FloorToGrid rounds value down (toward -inf) to a multiple of grid. grid must be positive.
func FloorToGrid(value, grid int64) int64 {
	q := value / grid
	if value%grid < 0 {
		q--
	}
	return q * grid
}

// CeilToGrid rounds value up (toward +inf) to a multiple of grid. grid must be positive.
func CeilToGrid(value, grid int64) int64 {
	return -FloorToGrid(-value, grid)
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of all values. Zero values are ignored and
// the result is 1 when nothing remains.
func LCM(values ...int64) int64 {
	result := int64(1)
	for _, v := range values {
		if v <= 0 {
			continue
		}
		result = result / GCD(result, v) * v
	}
	return result
}
