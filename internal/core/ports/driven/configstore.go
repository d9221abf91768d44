package driven

// ConfigStore provides access to miscellaneous application configuration
// (uploads directory, default owner, etc), distinct from ConfigurationStore
// which persists provider-selection snapshots (C10).
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	Set(key string, value any) error
	Save() error
	Load() error
	Path() string
}
