package billing

import "github.com/smallbiznis/billrun/internal/config"

// ConfigSource yields the current billing tunables. The production source is
// the hot-reloadable config holder; tests inject a static one.
type ConfigSource interface {
	Get() config.BillingConfig
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig struct {
	Config config.BillingConfig
}

func (s StaticConfig) Get() config.BillingConfig { return s.Config }
