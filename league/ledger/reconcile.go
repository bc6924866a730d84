// league/ledger/reconcile.go
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// Drift describes one group whose stored count disagreed with the teams.
type Drift struct {
	Group  string `json:"group"`
	Stored int64  `json:"stored"`
	Actual int64  `json:"actual"`
}

// Report is the outcome of a Reconcile run.
type Report struct {
	Checked int     `json:"checked"`
	Fixed   []Drift `json:"fixed"`
}

// Reconcile recounts every group from the team records and rewrites the
// group collection to match, in a single transaction.
func (l *Ledger) Reconcile(ctx context.Context) (Report, error) {
	var report Report
	err := l.store.RunTransaction(ctx, func(ctx context.Context, s docstore.Session) error {
		report = Report{Fixed: []Drift{}}

		teams, err := store.NewTeamStore(s).List(ctx)
		if err != nil {
			return err
		}
		actual := make(map[string]int64)
		for _, t := range teams {
			actual[t.Group]++
		}

		groupStore := store.NewGroupStore(s)
		stored, err := groupStore.List(ctx)
		if err != nil {
			return err
		}
		storedCounts := make(map[string]int64, len(stored))
		for _, g := range stored {
			storedCounts[g.ID] = g.Count
		}

		ids := make([]string, 0, len(actual)+len(storedCounts))
		for id := range actual {
			ids = append(ids, id)
		}
		for id := range storedCounts {
			if _, ok := actual[id]; !ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		report.Checked = len(ids)

		for _, id := range ids {
			want := actual[id]
			have, exists := storedCounts[id]
			if exists && have == want {
				continue
			}
			switch {
			case want == 0:
				err = groupStore.Delete(ctx, id)
			case !exists:
				err = groupStore.Create(ctx, models.Group{ID: id, Count: want})
			default:
				err = groupStore.SetCount(ctx, id, want)
			}
			if err != nil {
				return fmt.Errorf("failed to repair group %s: %w", id, err)
			}
			report.Fixed = append(report.Fixed, Drift{Group: id, Stored: have, Actual: want})
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	l.metrics.IncLedgerOps(metrics.OpReconcile)
	log.Info("Group ledger reconciled", "checked", report.Checked, "fixed", len(report.Fixed))
	return report, nil
}
