package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// RegistryClient reads the registry. It is separate from ServiceRegistrar so
// that callers which never register can still discover instances.
type RegistryClient struct {
	redisClient    redis.UniversalClient
	serviceTimeout time.Duration
}

func NewRegistryClient(redisClient redis.UniversalClient, serviceTimeout time.Duration) *RegistryClient {
	return &RegistryClient{
		redisClient:    redisClient,
		serviceTimeout: serviceTimeout,
	}
}

// GetActiveServices returns the live instances of serviceType keyed by
// instance ID. Entries whose last heartbeat is older than the service timeout
// are skipped.
func (rc *RegistryClient) GetActiveServices(ctx context.Context, serviceType string) (map[string]ServiceInfo, error) {
	results, err := rc.redisClient.HGetAll(ctx, hashKey(serviceType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get all services of type %s from Redis: %w", serviceType, err)
	}

	activeServices := make(map[string]ServiceInfo)
	now := time.Now()
	for instanceID, infoJSON := range results {
		info, err := parseServiceInfo(infoJSON)
		if err != nil {
			// malformed entries are removed by the registrar cleanup loop
			log.Warn("Skipping malformed registry entry", "id", instanceID, "type", serviceType, "err", err)
			continue
		}
		if info.alive(now, rc.serviceTimeout) {
			activeServices[instanceID] = info
		}
	}
	return activeServices, nil
}
