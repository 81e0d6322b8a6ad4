package job_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/liljencrantz/crush/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobHandleReleaseRemovesOnLastReference(t *testing.T) {
	reg := job.NewRegistry()
	h := reg.NewJob("sleep 1")
	h2 := h.Clone()

	h.Release()
	// one reference remains via h2
	assert.Len(t, dumpJobIDs(t, reg), 1)
	h2.Release()

	assert.Empty(t, dumpJobIDs(t, reg))
}

// dumpJobIDs decodes the ids of the jobs still registered from
// DumpCBOR.
func dumpJobIDs(t *testing.T, reg *job.Registry) []uint64 {
	t.Helper()
	data, err := reg.DumpCBOR()
	require.NoError(t, err)
	var snap struct {
		Jobs []struct {
			ID uint64 `cbor:"id"`
		} `cbor:"jobs"`
	}
	require.NoError(t, cbor.Unmarshal(data, &snap))
	ids := make([]uint64, len(snap.Jobs))
	for i, j := range snap.Jobs {
		ids[i] = j.ID
	}
	return ids
}

func TestRegistrySpawnAndReap(t *testing.T) {
	reg := job.NewRegistry()
	done := make(chan struct{})
	reg.Spawn("worker", nil, func() error {
		close(done)
		return errors.New("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker goroutine never ran")
	}

	var reported string
	var reportedErr error
	// Reap may race the goroutine's close(rec.done); poll briefly.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		reg.Reap(func(name string, err error) {
			reported = name
			reportedErr = err
		})
		if reportedErr != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}

	require.Error(t, reportedErr)
	assert.Equal(t, "worker", reported)
	assert.Equal(t, "boom", reportedErr.Error())
}

func TestAdapterSpawnImplementsSpawnerInterface(t *testing.T) {
	reg := job.NewRegistry()
	h := reg.NewJob("job")
	adapter := job.Adapter{Reg: reg, Job: &h}

	ran := make(chan struct{})
	adapter.Spawn("stage", func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("adapter did not spawn fn")
	}
}

func TestDumpCBORRoundTrips(t *testing.T) {
	reg := job.NewRegistry()
	h := reg.NewJob("ping -c1 example.com")
	reg.Spawn("ping", &h, func() error { return nil })

	data, err := reg.DumpCBOR()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, []uint64{uint64(h.ID())}, dumpJobIDs(t, reg))
}

func TestCurrentReturnsLiveThreads(t *testing.T) {
	reg := job.NewRegistry()
	block := make(chan struct{})
	reg.Spawn("blocked", nil, func() error {
		<-block
		return nil
	})

	threads := reg.Current()
	require.Len(t, threads, 1)
	assert.Equal(t, "blocked", threads[0].Name)

	close(block)
}
