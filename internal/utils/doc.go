// Package utils provides small generic helpers shared across the proxy's
// internal packages: a pointer-of helper and a byte-bounded string truncator.
package utils
