// Package syncer orchestrates one reconciliation run across both
// services: fetch, normalize, resolve, diff, execute, and the final
// summary. Failures degrade the run to partial wherever possible; only
// auth failures and cancellation abort it.
package syncer
