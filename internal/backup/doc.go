// Package backup implements the studio's backup and restore subsystem.
//
// The subsystem produces point-in-time snapshots of the application's
// persisted data (members, sessions, payments, trainers, packages and
// settings), verifies their integrity with a checksum computed before
// any encoding, enforces retention limits over a bounded history
// ledger, and restores a chosen snapshot back onto the key-value store
// with per-category failure accounting.
//
// Key components:
//
//   - Service: the orchestrator exposed to callers. CreateBackup and
//     RestoreFromBackup share a single-flight lock so neither can run
//     while the other is in progress.
//   - Ledger: the durable, length-capped, most-recent-first record of
//     completed backups, persisted as JSON in the key-value store.
//   - RetentionEnforcer: evicts artifacts that are both older than the
//     retention window and beyond the configured backup count.
//   - SnapshotCodec: JSON serialization with optional compression
//     (gzip, lz4, zstd) and AES-256-GCM encryption. The checksum is
//     always taken over the canonical JSON, so integrity verification
//     is independent of the encoding in force.
//   - CloudTransport: pluggable off-site copy strategy (S3, GCS,
//     Azure Blob Storage, or none). Uploads are best effort and never
//     fail a backup.
package backup
