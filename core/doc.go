// Package core contains the canonical voicemail authentication domain
// contracts, entities, and the per-call session state machine. Lower-level
// adapters (stores, telephony bridges) must depend on this package; core must
// not depend on storage- or transport-specific adapters.
package core
