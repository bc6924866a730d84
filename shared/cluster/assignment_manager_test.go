package cluster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/registry"
)

type fakeMembers struct {
	ids []string
	err error
}

func (f *fakeMembers) GetActiveServices(context.Context, string) (map[string]registry.ServiceInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]registry.ServiceInfo, len(f.ids))
	for _, id := range f.ids {
		out[id] = registry.ServiceInfo{ServiceID: id}
	}
	return out, nil
}

func TestIsResponsible_SoleMemberOwnsEverything(t *testing.T) {
	sam := NewServiceAssignmentManager(&fakeMembers{}, "league-a", registry.LeagueServiceType, 0)

	owns, err := sam.IsResponsible("leaderboard")
	require.NoError(t, err)
	assert.True(t, owns)
}

func TestIsResponsible_ExactlyOneOwner(t *testing.T) {
	ids := []string{"league-a", "league-b", "league-c"}
	src := &fakeMembers{ids: ids}

	owners := 0
	for _, id := range ids {
		sam := NewServiceAssignmentManager(src, id, registry.LeagueServiceType, 0)
		sam.Refresh(context.Background())
		owns, err := sam.IsResponsible("leaderboard")
		require.NoError(t, err)
		if owns {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
}

func TestRefresh_EmptyRegistryEmptiesRing(t *testing.T) {
	sam := NewServiceAssignmentManager(&fakeMembers{}, "league-a", registry.LeagueServiceType, 0)
	sam.Refresh(context.Background())

	_, err := sam.IsResponsible("leaderboard")
	assert.Error(t, err)
}

func TestRefresh_ErrorKeepsRing(t *testing.T) {
	sam := NewServiceAssignmentManager(&fakeMembers{err: errors.New("redis down")}, "league-a", registry.LeagueServiceType, 0)
	sam.Refresh(context.Background())

	owns, err := sam.IsResponsible("leaderboard")
	require.NoError(t, err)
	assert.True(t, owns)
}
