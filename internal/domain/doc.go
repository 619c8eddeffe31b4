// Package domain defines the core value types shared across the library:
// fixed-size key types, message types, and the closed error taxonomy every
// session operation reports from.
package domain
