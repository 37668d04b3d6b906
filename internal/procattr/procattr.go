// Package procattr applies platform-specific process attributes to external
// tool invocations.
package procattr
