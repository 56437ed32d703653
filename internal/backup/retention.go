package backup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"studiovault/internal/blob"
	"studiovault/internal/logging"
)

// RetentionResult reports one retention sweep. Failures on individual
// candidates are collected rather than aborting the sweep.
type RetentionResult struct {
	Processed int           `json:"processed"`
	Evicted   int           `json:"evicted"`
	Kept      int           `json:"kept"`
	Errors    []string      `json:"errors,omitempty"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dryRun"`
}

// RetentionEnforcer prunes old backups after each successful backup
// run. A backup is evicted only when BOTH limits are exceeded: its
// position in the most-recent-first ordering is at or past MaxBackups
// AND it is older than RetentionDays. This keeps at least MaxBackups
// entries around no matter how old they are, and keeps young entries
// around no matter how many there are.
type RetentionEnforcer struct {
	ledger    *Ledger
	blobs     blob.BlobStore
	transport CloudTransport
	logger    *logging.Logger
	now       func() time.Time
}

// NewRetentionEnforcer creates a retention enforcer. transport may be
// nil when no cloud provider is configured.
func NewRetentionEnforcer(ledger *Ledger, blobs blob.BlobStore, transport CloudTransport, logger *logging.Logger) *RetentionEnforcer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &RetentionEnforcer{
		ledger:    ledger,
		blobs:     blobs,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
}

// Enforce applies the retention rule described by settings. Each
// eviction is independent: a failure to remove one candidate is
// recorded and the sweep continues with the next.
func (re *RetentionEnforcer) Enforce(ctx context.Context, settings BackupSettings, dryRun bool) (*RetentionResult, error) {
	start := re.now()

	result := &RetentionResult{DryRun: dryRun}

	if settings.MaxBackups <= 0 || settings.RetentionDays <= 0 {
		// An unset limit disables the sweep entirely; the ledger hard
		// cap still bounds growth.
		result.Duration = re.now().Sub(start)
		return result, nil
	}

	records, err := re.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	// The ledger is already most-recent-first; re-sort defensively so
	// position-based eviction cannot misfire on a hand-edited store.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	cutoff := start.AddDate(0, 0, -settings.RetentionDays)
	result.Processed = len(records)

	for position, record := range records {
		if position < settings.MaxBackups || !record.CreatedAt.Before(cutoff) {
			result.Kept++
			continue
		}

		if dryRun {
			result.Evicted++
			continue
		}

		if err := re.evict(ctx, record); err != nil {
			result.Kept++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", record.ID, err))
			re.logger.Warnf("Retention eviction failed for %s: %v", record.ID, err)
			continue
		}

		result.Evicted++
	}

	result.Duration = re.now().Sub(start)
	re.logger.LogRetentionSweep(result.Processed, result.Evicted, result.Errors)

	return result, nil
}

// evict removes a backup's artifact, its cloud copy, and its ledger
// entry, in that order. The ledger entry goes last so a partial
// eviction leaves the backup discoverable.
func (re *RetentionEnforcer) evict(ctx context.Context, record *BackupRecord) error {
	if err := re.blobs.Delete(ctx, record.ArtifactPath); err != nil {
		return NewStorageError("failed to delete artifact", err)
	}

	if re.transport != nil && record.StorageLocation.IncludesCloud() {
		if err := re.transport.Delete(ctx, record.ArtifactPath); err != nil {
			return err
		}
	}

	if _, err := re.ledger.Remove(ctx, record.ID); err != nil {
		return err
	}

	return nil
}
