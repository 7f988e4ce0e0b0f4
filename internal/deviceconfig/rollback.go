package deviceconfig

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConfigurationSnapshot is a saved configuration document for rollback
type ConfigurationSnapshot struct {
	// Config is the document as the device returned it, passwords included
	Config *WireConfig

	// Timestamp when this snapshot was created
	Timestamp time.Time

	// Description of what operation this snapshot was taken before
	Description string
}

const defaultMaxSnapshots = 10

// RollbackManager keeps configuration snapshots so a change that does not
// read back can be undone.
type RollbackManager struct {
	client *Client

	mutex        sync.RWMutex
	snapshots    []*ConfigurationSnapshot
	maxSnapshots int
}

// NewRollbackManager creates a new rollback manager for a client
func NewRollbackManager(client *Client) *RollbackManager {
	return &RollbackManager{
		client:       client,
		snapshots:    make([]*ConfigurationSnapshot, 0, defaultMaxSnapshots),
		maxSnapshots: defaultMaxSnapshots,
	}
}

// SaveSnapshot fetches the current document from the device and keeps it.
func (rm *RollbackManager) SaveSnapshot(ctx context.Context, description string) error {
	config, err := rm.client.GetConfiguration(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch configuration for snapshot: %w", err)
	}
	rm.Record(config, description)
	return nil
}

// Record keeps a document that was already loaded. The document is copied.
func (rm *RollbackManager) Record(config *WireConfig, description string) {
	if config == nil {
		return
	}
	saved := *config

	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	rm.snapshots = append(rm.snapshots, &ConfigurationSnapshot{
		Config:      &saved,
		Timestamp:   time.Now(),
		Description: description,
	})
	if len(rm.snapshots) > rm.maxSnapshots {
		rm.snapshots = rm.snapshots[1:]
	}
}

// GetLatestSnapshot returns the most recent snapshot, or nil if no snapshots exist
func (rm *RollbackManager) GetLatestSnapshot() *ConfigurationSnapshot {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	if len(rm.snapshots) == 0 {
		return nil
	}
	return rm.snapshots[len(rm.snapshots)-1]
}

// GetSnapshots returns all snapshots, oldest first
func (rm *RollbackManager) GetSnapshots() []*ConfigurationSnapshot {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	result := make([]*ConfigurationSnapshot, len(rm.snapshots))
	copy(result, rm.snapshots)
	return result
}

// RollbackToSnapshot uploads the snapshot document and reads it back.
func (rm *RollbackManager) RollbackToSnapshot(ctx context.Context, snapshot *ConfigurationSnapshot, opts *VerificationOptions) *VerificationResult {
	if snapshot == nil || snapshot.Config == nil {
		return &VerificationResult{Error: fmt.Errorf("snapshot is empty")}
	}
	restore := *snapshot.Config
	return rm.client.UpdateAndVerify(ctx, &restore, opts)
}

// RollbackToLatest restores the most recent snapshot
func (rm *RollbackManager) RollbackToLatest(ctx context.Context, opts *VerificationOptions) *VerificationResult {
	snapshot := rm.GetLatestSnapshot()
	if snapshot == nil {
		return &VerificationResult{Error: fmt.Errorf("no snapshots available for rollback")}
	}
	return rm.RollbackToSnapshot(ctx, snapshot, opts)
}
