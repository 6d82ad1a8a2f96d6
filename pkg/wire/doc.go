// Package wire provides the canonical CBOR encoding used to compare and
// fingerprint structured values such as device snapshots.
//
// Two values are considered structurally equal when their canonical
// encodings are byte-identical. Canonical mode sorts map keys, forbids
// indefinite-length items and encodes nil containers as null, so the
// encoding of a value does not depend on map iteration order or on how the
// value was built.
//
// # Fingerprints
//
// A fingerprint is the first 8 bytes of the BLAKE2b-256 digest of the
// canonical encoding, rendered as lowercase hex. Fingerprints are short
// enough to appear in log events and stable across processes.
package wire
