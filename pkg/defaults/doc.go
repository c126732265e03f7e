// Package defaults centralizes timeout and pacing constants so per-collector
// tuning happens in one place rather than scattered magic numbers.
package defaults
