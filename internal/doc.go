// Package internal holds helpers shared by the root package that must not
// become part of the public API surface.
package internal
