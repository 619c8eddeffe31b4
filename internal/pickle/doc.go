// Package pickle implements the versioned fixed-layout serialization of
// session state ("pickling") and the password-keyed encryption envelope
// wrapped around it. Fields are big-endian fixed width: bools one byte,
// counters four bytes, byte arrays inlined at known lengths.
package pickle
