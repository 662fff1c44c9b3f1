// Package hcl provides the HCL implementation of the config.Loader interface.
// It is responsible for file discovery, parsing, evaluation of time expressions
// against the unit variables, and translation of the blocks into the
// format-agnostic experiment model.
package hcl
