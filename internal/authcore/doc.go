// Package authcore implements ctaphid.Authenticator for exactly two
// CTAP2 command bytes, as an integration fixture for internal/ctaphid
// and internal/attestation end to end. It is not a certified
// authenticator core: it signs nothing, stores no credentials across
// calls, and its COSE public key is a random placeholder point rather
// than one derived from real key material.
package authcore
