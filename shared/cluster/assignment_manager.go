// shared/cluster/assignment_manager.go
package cluster

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stathat/consistent"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/registry"
)

// MemberSource lists the live instances of a service type.
type MemberSource interface {
	GetActiveServices(ctx context.Context, serviceType string) (map[string]registry.ServiceInfo, error)
}

// ServiceAssignmentManager decides whether this instance owns a given key by
// consistent hashing over the live instances of its service type.
type ServiceAssignmentManager struct {
	members        MemberSource
	serviceID      string
	serviceType    string
	updateInterval time.Duration
	consistentHash *consistent.Consistent
	chMux          sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
}

func NewServiceAssignmentManager(members MemberSource, serviceID, serviceType string, updateInterval time.Duration) *ServiceAssignmentManager {
	ctx, cancel := context.WithCancel(context.Background())
	sam := &ServiceAssignmentManager{
		members:        members,
		serviceID:      serviceID,
		serviceType:    serviceType,
		updateInterval: updateInterval,
		consistentHash: consistent.New(),
		ctx:            ctx,
		cancel:         cancel,
	}
	// Until the first refresh this instance only knows about itself.
	sam.consistentHash.Add(serviceID)
	return sam
}

// Start refreshes the ring periodically until Stop is called. It blocks.
func (sam *ServiceAssignmentManager) Start() {
	ticker := time.NewTicker(sam.updateInterval)
	defer ticker.Stop()

	log.Info("Assignment manager started", "type", sam.serviceType, "id", sam.serviceID, "interval", sam.updateInterval)
	sam.Refresh(sam.ctx)
	for {
		select {
		case <-sam.ctx.Done():
			log.Info("Assignment manager stopped", "type", sam.serviceType)
			return
		case <-ticker.C:
			sam.Refresh(sam.ctx)
		}
	}
}

func (sam *ServiceAssignmentManager) Stop() {
	sam.cancel()
}

// Refresh rebuilds the ring when the set of live members has changed.
func (sam *ServiceAssignmentManager) Refresh(ctx context.Context) {
	active, err := sam.members.GetActiveServices(ctx, sam.serviceType)
	if err != nil {
		log.Error("Failed to list active services", "type", sam.serviceType, "err", err)
		return
	}

	members := make([]string, 0, len(active))
	for id := range active {
		members = append(members, id)
	}
	slices.Sort(members)

	sam.chMux.Lock()
	defer sam.chMux.Unlock()

	current := sam.consistentHash.Members()
	slices.Sort(current)
	if slices.Equal(members, current) {
		return
	}
	ring := consistent.New()
	for _, m := range members {
		ring.Add(m)
	}
	sam.consistentHash = ring
	log.Info("Consistent hash ring updated", "type", sam.serviceType, "members", members)
}

// IsResponsible reports whether this instance owns key.
func (sam *ServiceAssignmentManager) IsResponsible(key string) (bool, error) {
	sam.chMux.RLock()
	defer sam.chMux.RUnlock()

	if len(sam.consistentHash.Members()) == 0 {
		return false, fmt.Errorf("consistent hash ring is empty for service type %s", sam.serviceType)
	}
	owner, err := sam.consistentHash.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to get responsible service for %q (type %s): %w", key, sam.serviceType, err)
	}
	return owner == sam.serviceID, nil
}
