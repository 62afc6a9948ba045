/*
Package digest implements the content-addressing primitive exposed to build scripts.

A digest is the 128-bit XXH3 hash of a string computed with a fixed seed, rendered as
unpadded base32 text over the alphabet A-Z2-7. Build scripts use it as a cache key to
decide whether inputs or outputs changed between runs.

# Stability

The seed is a build-time constant. Digests are stable across runs of the same build
of ntb; they are not a compatibility guarantee across releases that change the seed
or the hash algorithm.

The hash is not cryptographic and must not be used where collision resistance against
an adversary matters.
*/
package digest
