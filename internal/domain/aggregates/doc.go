// Package aggregates names the write boundaries of the achievement domain and
// the error codes they report.
package aggregates
