package secrets

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/smallmain/unichat-secrets/internal/jsonwalk"
	"github.com/smallmain/unichat-secrets/internal/secretref"
)

// ConfigInspector exposes the unmerged raw endpoints value at every settings
// scope, keyed by scope identifier ("global", "workspace", "folder:<name>").
// The sweep scans raw values rather than a merged view: merging can hide
// folder-specific entries that still hold live references, so every scope is
// inspected independently and the used set is the union across all of them.
type ConfigInspector interface {
	Inspect() (map[string]any, error)
}

// CleanupOptions controls a sweep.
type CleanupOptions struct {
	// DryRun reports what would be deleted without deleting.
	DryRun bool

	// Concurrency bounds the parallel deletions; 0 means a default of 8.
	Concurrency int
}

// CleanupResult summarizes one sweep.
type CleanupResult struct {
	Scanned int
	Deleted int
	Failed  int
}

// deletion reasons, for logs and metrics.
const (
	reasonUnused       = "unused"
	reasonUnrecognized = "unrecognized-key"
)

// CleanupUnusedSecrets deletes every owned storage key whose reference no
// longer appears in any settings scope, along with owned keys whose
// structure is unrecognized.
//
// Deletions run concurrently and fail independently: there is no batch
// rollback, a partial sweep is safe, and keys that fail to delete stay
// eligible for the next sweep. The used set reflects the scan's snapshot;
// a reference written by a racing settings edit after the scan is not
// protected, and the remediation is simply to run cleanup again.
func (f *Facade) CleanupUnusedSecrets(ctx context.Context, inspector ConfigInspector, opts CleanupOptions) (CleanupResult, error) {
	keys, err := f.ListOwnedKeys(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	if len(keys) == 0 {
		return CleanupResult{}, nil
	}

	used, err := usedReferences(inspector)
	if err != nil {
		return CleanupResult{}, err
	}

	type doomed struct {
		key    string
		reason string
	}
	var marked []doomed
	for _, key := range keys {
		reason, ok := sweepReason(key, used)
		if ok {
			marked = append(marked, doomed{key: key, reason: reason})
		}
	}

	result := CleanupResult{Scanned: len(keys)}
	recordSweepRun(len(keys))

	if opts.DryRun {
		for _, d := range marked {
			f.logger.Info("would delete %s (%s)", d.key, d.reason)
		}
		result.Deleted = len(marked)
		return result, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 8
	}

	var deleted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, d := range marked {
		d := d
		g.Go(func() error {
			if err := f.store.Delete(gctx, d.key); err != nil {
				failed.Add(1)
				recordSweepDeleteFailure()
				f.logger.Warn("failed to delete %s: %v", d.key, err)
				return nil
			}
			deleted.Add(1)
			recordSweepDeleted(d.reason)
			f.logger.Debug("deleted %s (%s)", d.key, d.reason)
			return nil
		})
	}
	_ = g.Wait()

	result.Deleted = int(deleted.Load())
	result.Failed = int(failed.Load())
	return result, nil
}

// usedReferences walks every string leaf of every scope's raw value and
// collects the references in canonical (lowercase) form.
func usedReferences(inspector ConfigInspector) (map[string]struct{}, error) {
	scopes, err := inspector.Inspect()
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	for _, raw := range scopes {
		jsonwalk.Strings(raw, func(s string) {
			if id, ok := secretref.ExtractUUID(s); ok {
				used[secretref.FromUUID(id)] = struct{}{}
			}
		})
	}
	return used, nil
}

// sweepReason decides whether an owned key should be deleted. A key with no
// kind prefix or an interior that does not rebuild into a valid reference is
// structurally broken and goes regardless of the used set.
func sweepReason(key string, used map[string]struct{}) (string, bool) {
	id, _, ok := secretref.UUIDFromStorageKey(key)
	if !ok {
		return reasonUnrecognized, true
	}

	ref := secretref.FromUUID(id)
	if !secretref.IsReference(ref) {
		return reasonUnrecognized, true
	}

	if _, inUse := used[ref]; !inUse {
		return reasonUnused, true
	}
	return "", false
}
