// shared/registry/constants.go
package registry

const (
	// RedisRegistryHashPrefix is the prefix of the Redis hashes holding
	// registrations, one hash per service type: "services:<serviceType>".
	RedisRegistryHashPrefix = "services:"

	// LeagueServiceType is the registry type of the league service.
	LeagueServiceType = "league-service"
)

func hashKey(serviceType string) string {
	return RedisRegistryHashPrefix + serviceType
}
