package repositories

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/devlog-collector/models"
)

func record(tag string, i int) models.LogRecord {
	return models.LogRecord{
		Timestamp: "N/A",
		Level:     "INFO",
		Tag:       tag,
		Message:   fmt.Sprintf("%s-%d", tag, i),
	}
}

func messages(records []models.LogRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Message
	}
	return out
}

func TestLogStore_AppendWithinCapacity(t *testing.T) {
	store := NewLogStore(5)

	for i := 1; i <= 3; i++ {
		store.Append(record("r", i))
	}

	assert.Equal(t, 3, store.Size())
	assert.Equal(t, []string{"r-1", "r-2", "r-3"}, messages(store.All()))
	assert.Equal(t, []string{"r-3", "r-2", "r-1"}, messages(store.Snapshot(10)))
}

func TestLogStore_BoundedFIFO(t *testing.T) {
	store := NewLogStore(DefaultLogCapacity)
	total := DefaultLogCapacity + 250

	for i := 1; i <= total; i++ {
		store.Append(record("r", i))
	}

	require.Equal(t, DefaultLogCapacity, store.Size())

	all := store.All()
	require.Len(t, all, DefaultLogCapacity)
	for i, r := range all {
		assert.Equal(t, fmt.Sprintf("r-%d", total-DefaultLogCapacity+1+i), r.Message)
	}
}

func TestLogStore_Snapshot(t *testing.T) {
	store := NewLogStore(100)
	for i := 1; i <= 60; i++ {
		store.Append(record("r", i))
	}

	snapshot := store.Snapshot(50)
	require.Len(t, snapshot, 50)
	assert.Equal(t, "r-60", snapshot[0].Message)
	assert.Equal(t, "r-11", snapshot[49].Message)

	assert.Empty(t, store.Snapshot(0))
	assert.Empty(t, store.Snapshot(-1))
	assert.Equal(t, 60, store.Size(), "snapshot must not mutate the store")
}

func TestLogStore_SnapshotWithSizeIsCoherent(t *testing.T) {
	store := NewLogStore(20)
	stop := make(chan struct{})
	done := make(chan struct{})

	// Writer keeps appending and clearing underneath the reader
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			store.Append(record("r", i))
			if i%7 == 0 {
				store.Clear()
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		recent, total := store.SnapshotWithSize(5)
		if !assert.Len(t, recent, min(5, total), "snapshot and size disagree") {
			break
		}
	}
	close(stop)
	<-done

	recent, total := store.SnapshotWithSize(50)
	assert.Equal(t, store.Size(), total)
	assert.Len(t, recent, total)
}

func TestLogStore_SnapshotAfterWrap(t *testing.T) {
	store := NewLogStore(3)
	for i := 1; i <= 7; i++ {
		store.Append(record("r", i))
	}

	assert.Equal(t, []string{"r-7", "r-6"}, messages(store.Snapshot(2)))
	assert.Equal(t, []string{"r-5", "r-6", "r-7"}, messages(store.All()))
}

func TestLogStore_Clear(t *testing.T) {
	store := NewLogStore(3)
	for i := 1; i <= 5; i++ {
		store.Append(record("r", i))
	}

	store.Clear()

	assert.Equal(t, 0, store.Size())
	assert.Empty(t, store.All())
	assert.Empty(t, store.Snapshot(50))

	// The store keeps working after a clear
	store.Append(record("after", 1))
	assert.Equal(t, []string{"after-1"}, messages(store.All()))
}

func TestLogStore_CopiesAreIndependent(t *testing.T) {
	store := NewLogStore(3)
	store.Append(record("r", 1))

	all := store.All()
	all[0].Message = "changed"

	assert.Equal(t, "r-1", store.All()[0].Message)
}

func TestLogStore_InvalidCapacityFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultLogCapacity, NewLogStore(0).Capacity())
	assert.Equal(t, DefaultLogCapacity, NewLogStore(-5).Capacity())
}

func TestLogStore_ConcurrentAppend(t *testing.T) {
	const (
		writers   = 8
		perWriter = 400
	)
	store := NewLogStore(DefaultLogCapacity)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	observed := make(chan int, 1)

	// Reader observing size and snapshots while writers run
	go func() {
		maxSeen := 0
		for {
			select {
			case <-stop:
				observed <- maxSeen
				return
			default:
			}
			if n := store.Size(); n > maxSeen {
				maxSeen = n
			}
			if n := len(store.All()); n > maxSeen {
				maxSeen = n
			}
			store.Snapshot(50)
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			tag := fmt.Sprintf("writer%d", w)
			for i := 0; i < perWriter; i++ {
				store.Append(record(tag, i))
			}
		}(w)
	}
	wg.Wait()
	close(stop)

	assert.LessOrEqual(t, <-observed, DefaultLogCapacity)

	all := store.All()
	require.Len(t, all, min(DefaultLogCapacity, writers*perWriter))

	// No duplicates, and each writer's records keep their relative order
	seen := make(map[string]bool)
	last := make(map[string]int)
	for _, r := range all {
		assert.False(t, seen[r.Message], "duplicate record %s", r.Message)
		seen[r.Message] = true

		var i int
		_, err := fmt.Sscanf(r.Message[len(r.Tag)+1:], "%d", &i)
		require.NoError(t, err)
		if prev, ok := last[r.Tag]; ok {
			assert.Greater(t, i, prev, "records from %s out of order", r.Tag)
		}
		last[r.Tag] = i
	}
}
