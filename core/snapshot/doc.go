// Package snapshot normalizes raw per-service payloads into uniform record
// sets. Each Set belongs to exactly one source and category; downstream
// components never see service-specific shapes.
//
// Normalization deduplicates by identity key (most recently seen entry
// wins) and applies category validity rules. Records failing a rule are
// flagged with the reason and surfaced in the run summary instead of being
// dropped silently.
package snapshot
