package deviceconfig

import (
	"context"
	"fmt"
	"testing"
)

func TestRollbackManager_RecordCopies(t *testing.T) {
	rm := NewRollbackManager(NewClient("192.168.4.1", 80))

	cfg := sampleConfig()
	rm.Record(cfg, "before edit")
	cfg.HostName = "changed"

	latest := rm.GetLatestSnapshot()
	if latest == nil {
		t.Fatal("no snapshot recorded")
	}
	if latest.Config.HostName != "dmx-box" {
		t.Errorf("snapshot HostName = %q, want dmx-box", latest.Config.HostName)
	}
	if latest.Description != "before edit" {
		t.Errorf("Description = %q", latest.Description)
	}

	rm.Record(nil, "ignored")
	if n := len(rm.GetSnapshots()); n != 1 {
		t.Errorf("len(GetSnapshots()) = %d, want 1", n)
	}
}

func TestRollbackManager_HistoryLimit(t *testing.T) {
	rm := NewRollbackManager(NewClient("192.168.4.1", 80))
	for i := 0; i < defaultMaxSnapshots+3; i++ {
		cfg := sampleConfig()
		cfg.HostName = fmt.Sprintf("box-%d", i)
		rm.Record(cfg, "")
	}

	snapshots := rm.GetSnapshots()
	if len(snapshots) != defaultMaxSnapshots {
		t.Fatalf("len(GetSnapshots()) = %d, want %d", len(snapshots), defaultMaxSnapshots)
	}
	if snapshots[0].Config.HostName != "box-3" {
		t.Errorf("oldest = %q, want box-3", snapshots[0].Config.HostName)
	}
	if rm.GetLatestSnapshot().Config.HostName != "box-12" {
		t.Errorf("latest = %q, want box-12", rm.GetLatestSnapshot().Config.HostName)
	}
}

func TestRollbackManager_RestoresSnapshot(t *testing.T) {
	server := storingServer(t, nil)
	defer server.Close()
	client := newTestClient(server.URL)
	ctx := context.Background()

	original := sampleConfig()
	if err := client.PutConfiguration(ctx, original); err != nil {
		t.Fatal(err)
	}

	rm := NewRollbackManager(client)
	if err := rm.SaveSnapshot(ctx, "before channel change"); err != nil {
		t.Fatalf("SaveSnapshot() = %v", err)
	}

	changed := sampleConfig()
	changed.AccessPoint.Channel = 3
	changed.Station.Enabled = false
	if err := client.PutConfiguration(ctx, changed); err != nil {
		t.Fatal(err)
	}

	result := rm.RollbackToLatest(ctx, fastVerification())
	if !result.Success {
		t.Fatalf("RollbackToLatest() failed: %v", result.Error)
	}

	got, err := client.GetConfiguration(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if mismatches := CompareConfigs(original, got); len(mismatches) != 0 {
		t.Errorf("device not restored: %v", mismatches)
	}
}

func TestRollbackManager_NoSnapshot(t *testing.T) {
	rm := NewRollbackManager(NewClient("192.168.4.1", 80))

	result := rm.RollbackToLatest(context.Background(), fastVerification())
	if result.Success || result.Error == nil {
		t.Errorf("RollbackToLatest() without snapshot = %+v", result)
	}
	if result := rm.RollbackToSnapshot(context.Background(), nil, nil); result.Error == nil {
		t.Error("RollbackToSnapshot(nil) should fail")
	}
}
