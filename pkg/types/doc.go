// Package types holds the public status codes, typed errors, limits and
// diagnostic records shared by the blend packages.
//
// Design goals:
//   - A closed set of status codes so callers can branch on intent.
//   - Paranoid bounds checking; never panic on malformed input.
//   - Degraded results (missing fields, unresolved pointers) are reported,
//     not returned as errors.
package types
