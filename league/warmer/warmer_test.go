package warmer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) (models.Leaderboard, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return models.Leaderboard{"1": nil}, nil
}

type staticAssigner struct {
	owner bool
	err   error
}

func (a staticAssigner) IsResponsible(string) (bool, error) { return a.owner, a.err }

func TestWarmOnce(t *testing.T) {
	tests := []struct {
		name       string
		assigner   Assigner
		refreshErr error
		wantWarm   bool
		wantCalls  int32
	}{
		{"no assigner", nil, nil, true, 1},
		{"owner", staticAssigner{owner: true}, nil, true, 1},
		{"not owner", staticAssigner{owner: false}, nil, false, 0},
		{"ring error", staticAssigner{err: errors.New("empty ring")}, nil, false, 0},
		{"refresh error", staticAssigner{owner: true}, errors.New("store down"), false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingRefresher{err: tt.refreshErr}
			m := metrics.NewMock()
			w := NewLeaderboardWarmer(r, tt.assigner, m, time.Second, time.Second)

			assert.Equal(t, tt.wantWarm, w.warmOnce())
			assert.Equal(t, tt.wantCalls, r.calls.Load())
			if tt.wantWarm {
				assert.Equal(t, 1, m.WarmerRuns())
			} else {
				assert.Equal(t, 0, m.WarmerRuns())
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	r := &countingRefresher{}
	w := NewLeaderboardWarmer(r, nil, metrics.NewMock(), 5*time.Millisecond, time.Second)

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	w.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("warmer did not stop")
	}
}
