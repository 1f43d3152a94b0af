// Package validation provides common validation utilities for configuration
// parameters across docgate.
//
// The helpers return *errors.ValidationError values so that constructors
// report misconfiguration with consistent messages and hints.
package validation
