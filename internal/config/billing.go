package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig is the tunable half of the billing orchestrator: the
// transient-failure retry schedule, the date-advance policy for the next
// cycle and the charge worker pool size.
type BillingConfig struct {
	// RetryWaits is the wait before each retry of a transient charge
	// failure. A charge makes at most len(RetryWaits)+1 attempts.
	RetryWaits []time.Duration `mapstructure:"retryWaits"`

	// AdvancePolicy selects how the next cycle date is derived from the
	// previous one. Currently "first_of_next_month".
	AdvancePolicy string `mapstructure:"advancePolicy"`

	// ChargeWorkers caps concurrent charge attempts within one cycle run.
	ChargeWorkers int `mapstructure:"chargeWorkers"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		RetryWaits:    []time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second},
		AdvancePolicy: AdvanceFirstOfNextMonth,
		ChargeWorkers: 16,
	}
}

const AdvanceFirstOfNextMonth = "first_of_next_month"

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/billrun")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.retryWaits", defaults.RetryWaits)
	v.SetDefault("billing.advancePolicy", defaults.AdvancePolicy)
	v.SetDefault("billing.chargeWorkers", defaults.ChargeWorkers)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	for _, wait := range cfg.RetryWaits {
		if wait < 0 {
			return errors.New("billing.retryWaits entries must be non-negative")
		}
	}
	if cfg.AdvancePolicy != AdvanceFirstOfNextMonth {
		return errors.New("billing.advancePolicy is not a known policy")
	}
	if cfg.ChargeWorkers <= 0 {
		return errors.New("billing.chargeWorkers must be positive")
	}
	return nil
}
