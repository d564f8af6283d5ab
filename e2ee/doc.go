// Package e2ee manages per-track frame encryption for a session.
//
// The Manager tracks one FrameCryptor per (participant identity, track SID)
// pair. Bindings are driven by track lifecycle notifications from the room:
// subscribe/publish creates a cryptor, unsubscribe/unpublish removes it. A
// manager constructed without options is inactive and treats every lifecycle
// call as a no-op.
//
// Cryptors seal frame payloads with AES-GCM. Key material comes from a
// KeyProvider holding a session shared key and per-identity overrides, with
// HKDF-SHA256 ratcheting to advance keys without redistribution.
//
// State changes (ok, missing key, decryption failed, key ratcheted) are
// forwarded through the manager's single registered observer, tagged with the
// originating identity.
package e2ee
