// shared/registry/types.go
package registry

import (
	"encoding/json"
	"time"
)

// ServiceInfo represents the details of a registered service instance.
// This information is stored in Redis and used for service discovery.
type ServiceInfo struct {
	ServiceID   string            `json:"serviceId"`
	ServiceType string            `json:"serviceType"`
	IP          string            `json:"ip"`
	Port        int               `json:"port"`
	LastSeen    int64             `json:"last_seen"` // unix milliseconds
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// alive reports whether the last heartbeat is within ttl of now.
func (si ServiceInfo) alive(now time.Time, ttl time.Duration) bool {
	return now.Sub(time.UnixMilli(si.LastSeen)) <= ttl
}

func parseServiceInfo(raw string) (ServiceInfo, error) {
	var info ServiceInfo
	err := json.Unmarshal([]byte(raw), &info)
	return info, err
}
