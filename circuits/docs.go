// Package circuits contains the in-circuit building blocks shared by the
// wrapper circuits. Every wrapper follows the same shape:
//
// +------------+
// |    Base    |  BLS12-377           <- native
// |   proofs   |  (N per wrapper)
// +------------+
//
// +------------+  BW6-761             <- native
// |  Wrapper   |  (BLS12-377 inside)  <- inner
// +------------+
//
// +------------+  BW6-761             <- native
// |    Fold    |  (wrapper outputs)
// +------------+
//
// The wrapper verifies each base proof against a fixed verifying key and
// exposes a single public commitment: the MiMC hash of the key digests
// followed by every verified public input. The hash is computed over the
// native BW6-761 field so the native implementation in the commitment
// package produces the same value.
package circuits
