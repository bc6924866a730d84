package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/config"
)

// ServiceRegistrar handles the self-registration and heartbeating of a service instance.
type ServiceRegistrar struct {
	redisClient redis.UniversalClient
	serviceType string
	version     string
	cfg         *config.CommonConfig
	serviceID   string
	stopChan    chan struct{}
	doneChan    chan struct{}
}

func NewServiceRegistrar(redisClient redis.UniversalClient, serviceType, version string, cfg *config.CommonConfig) *ServiceRegistrar {
	return &ServiceRegistrar{
		redisClient: redisClient,
		serviceType: serviceType,
		version:     version,
		cfg:         cfg,
		serviceID:   fmt.Sprintf("%s-%s", serviceType, uuid.NewString()),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start begins heartbeating in a background goroutine.
func (sr *ServiceRegistrar) Start() {
	log.Info("Starting service registrar",
		"type", sr.serviceType, "id", sr.serviceID, "ip", sr.cfg.ServiceIP, "port", sr.cfg.ServicePort)
	go sr.run()
}

// Stop ends heartbeating and removes this instance from the registry.
func (sr *ServiceRegistrar) Stop() {
	close(sr.stopChan)
	<-sr.doneChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sr.redisClient.HDel(ctx, hashKey(sr.serviceType), sr.serviceID).Err(); err != nil {
		log.Error("Failed to deregister service", "type", sr.serviceType, "id", sr.serviceID, "err", err)
		return
	}
	log.Info("Service deregistered", "type", sr.serviceType, "id", sr.serviceID)
}

func (sr *ServiceRegistrar) run() {
	defer close(sr.doneChan)

	ticker := time.NewTicker(sr.cfg.HeartbeatInterval)
	defer ticker.Stop()

	sr.heartbeat()

	var cleanup <-chan time.Time
	if sr.cfg.RegistryCleanupInterval > 0 {
		cleanupTicker := time.NewTicker(sr.cfg.RegistryCleanupInterval)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	for {
		select {
		case <-ticker.C:
			sr.heartbeat()
		case <-cleanup:
			sr.performCleanup()
		case <-sr.stopChan:
			return
		}
	}
}

func (sr *ServiceRegistrar) heartbeat() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	info := ServiceInfo{
		ServiceID:   sr.serviceID,
		ServiceType: sr.serviceType,
		IP:          sr.cfg.ServiceIP,
		Port:        sr.cfg.ServicePort,
		LastSeen:    time.Now().UnixMilli(),
		Metadata:    map[string]string{"version": sr.version},
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		log.Error("Failed to marshal service info", "id", sr.serviceID, "err", err)
		return
	}
	if err := sr.redisClient.HSet(ctx, hashKey(sr.serviceType), sr.serviceID, infoJSON).Err(); err != nil {
		log.Error("Heartbeat failed", "type", sr.serviceType, "id", sr.serviceID, "err", err)
		return
	}
	log.Debug("Heartbeat sent", "type", sr.serviceType, "id", sr.serviceID)
}

// performCleanup removes stale and malformed entries of this service type.
func (sr *ServiceRegistrar) performCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := hashKey(sr.serviceType)
	results, err := sr.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		log.Error("Registry cleanup failed to list services", "type", sr.serviceType, "err", err)
		return
	}

	now := time.Now()
	for instanceID, infoJSON := range results {
		info, err := parseServiceInfo(infoJSON)
		if err == nil && info.alive(now, sr.cfg.HeartbeatTTL) {
			continue
		}
		if delErr := sr.redisClient.HDel(ctx, key, instanceID).Err(); delErr != nil {
			log.Error("Registry cleanup failed to delete entry", "id", instanceID, "err", delErr)
			continue
		}
		log.Info("Registry cleanup removed entry", "id", instanceID, "malformed", err != nil)
	}
}

func (sr *ServiceRegistrar) GetServiceID() string {
	return sr.serviceID
}

func (sr *ServiceRegistrar) GetServiceType() string {
	return sr.serviceType
}
