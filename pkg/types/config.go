package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Reload policies decide what happens to an open edit session when new
// external data replaces the collection.
const (
	ReloadDiscard  = "discard"
	ReloadPreserve = "preserve"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrReloadPolicyUnknown = errors.New("unknown reload policy")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// EditorConfig configures an edit session.
type EditorConfig struct {
	Fields       Schema `json:"fields" yaml:"fields"`
	ReloadPolicy string `json:"reload_policy" yaml:"reload_policy"`
}

// Validate checks the schema and the reload policy. An empty policy means
// ReloadDiscard.
func (c EditorConfig) Validate() error {
	if err := c.Fields.Validate(); err != nil {
		return err
	}
	switch c.ReloadPolicy {
	case "", ReloadDiscard, ReloadPreserve:
		return nil
	default:
		return ErrReloadPolicyUnknown
	}
}
