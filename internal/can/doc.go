// Package can owns the CAN/CAN FD frame wire contract and parsing primitives.
//
// Ownership boundary:
// - identifier word bit layout (addressing mode, error class, remote request)
// - fixed region layout for classic (16 byte) and FD (72 byte) frames
// - frame view construction, validation and value semantics
//
// Transports and tooling build on this package; it performs no I/O.
package can
