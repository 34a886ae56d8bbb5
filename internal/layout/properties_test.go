package layout

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/calplan/internal/model"
)

func randomDay(rng *rand.Rand, n int) []model.TimedEvent {
	events := make([]model.TimedEvent, 0, n)
	for i := 0; i < n; i++ {
		// Quarter-hour grid keeps ties and touching edges frequent.
		start := model.Clock(15 * rng.IntN(60))
		length := 15 * (1 + rng.IntN(12))
		events = append(events, model.TimedEvent{
			ID:    fmt.Sprintf("ev-%d", i),
			Start: start,
			End:   start.Add(length),
		})
	}
	return events
}

// bruteForceWidth counts, for each minute, how many cluster events cover it.
func bruteForceWidth(cluster []model.TimedEvent) int {
	best := 0
	for m := model.Clock(0); m < model.MinutesPerDay; m++ {
		n := 0
		for _, e := range cluster {
			if e.Start <= m && m < e.End {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return best
}

func TestLayoutProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	for round := 0; round < 200; round++ {
		events := randomDay(rng, rng.IntN(14))
		got, err := Layout(events)
		require.NoError(t, err)
		require.Len(t, got, len(events))

		for i := range events {
			for j := i + 1; j < len(events); j++ {
				a, b := events[i], events[j]
				if got[a.ID].Column == got[b.ID].Column {
					assert.True(t, a.End <= b.Start || b.End <= a.Start,
						"%v and %v share column %d", a, b, got[a.ID].Column)
				}
				if Overlaps(a, b) {
					assert.Equal(t, got[a.ID].TotalColumns, got[b.ID].TotalColumns,
						"overlapping events must share a cluster width")
				}
			}
		}

		clusters, err := Clusters(events)
		require.NoError(t, err)
		seen := 0
		for _, cluster := range clusters {
			seen += len(cluster)
			width := got[cluster[0].ID].TotalColumns
			assert.Equal(t, bruteForceWidth(cluster), width, "cluster width must equal peak concurrency")
			assert.Equal(t, MaxConcurrent(cluster), width)
			for _, e := range cluster {
				p := got[e.ID]
				assert.Equal(t, width, p.TotalColumns)
				assert.GreaterOrEqual(t, p.Column, 0)
				assert.Less(t, p.Column, p.TotalColumns)
			}
		}
		assert.Equal(t, len(events), seen)
	}
}

func TestLayoutIsDeterministicUnderConcurrency(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	events := randomDay(rng, 40)
	want, err := Layout(events)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := Layout(events)
				if err != nil {
					t.Errorf("layout failed: %v", err)
					return
				}
				if !reflect.DeepEqual(want, got) {
					t.Errorf("layout is not deterministic")
					return
				}
			}
		}()
	}
	wg.Wait()
}
