package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	Port         string
	IsProduction bool

	// StoreCurrency is the base currency the catalog is priced in.
	StoreCurrency string
	// StoreCountry is the merchant-configured default store location, used
	// when IP geolocation fails or is excluded.
	StoreCountry string
	// AllowedCountries restricts which geolocated countries are honored.
	// Empty means every country is allowed.
	AllowedCountries []string

	// AutoCurrencySwitch enables geolocation-driven currency selection for
	// visitors without a stored choice.
	AutoCurrencySwitch bool
	// CharmAppliesToShipping extends charm pricing from product prices to
	// shipping prices.
	CharmAppliesToShipping bool

	RateProviderURL string
	RateCacheTTL    time.Duration
	LocaleCacheTTL  time.Duration
	GeolocationURL  string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORE_CURRENCY", "USD")
	viper.SetDefault("STORE_COUNTRY", "US")
	viper.SetDefault("ALLOWED_COUNTRIES", "")
	viper.SetDefault("AUTO_CURRENCY_SWITCH", false)
	viper.SetDefault("CHARM_APPLIES_TO_SHIPPING", false)
	viper.SetDefault("RATE_PROVIDER_URL", "")
	viper.SetDefault("RATE_CACHE_TTL", "6h")
	viper.SetDefault("LOCALE_CACHE_TTL", "24h")
	viper.SetDefault("GEOLOCATION_URL", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.StoreCurrency = strings.ToUpper(viper.GetString("STORE_CURRENCY"))
	if len(cfg.StoreCurrency) != 3 {
		log.Printf("Warning: Invalid STORE_CURRENCY ('%s'). Defaulting to USD.\n", cfg.StoreCurrency)
		cfg.StoreCurrency = "USD"
	}

	cfg.StoreCountry = strings.ToUpper(viper.GetString("STORE_COUNTRY"))

	if raw := viper.GetString("ALLOWED_COUNTRIES"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			c = strings.ToUpper(strings.TrimSpace(c))
			if c != "" {
				cfg.AllowedCountries = append(cfg.AllowedCountries, c)
			}
		}
	}

	cfg.AutoCurrencySwitch = viper.GetBool("AUTO_CURRENCY_SWITCH")
	cfg.CharmAppliesToShipping = viper.GetBool("CHARM_APPLIES_TO_SHIPPING")

	cfg.RateProviderURL = viper.GetString("RATE_PROVIDER_URL")
	if cfg.RateProviderURL == "" {
		log.Println("Warning: RATE_PROVIDER_URL not set. Rate refresh will rely on cached or placeholder rates.")
	}
	cfg.GeolocationURL = viper.GetString("GEOLOCATION_URL")

	cfg.RateCacheTTL = parseDurationOr("RATE_CACHE_TTL", 6*time.Hour)
	cfg.LocaleCacheTTL = parseDurationOr("LOCALE_CACHE_TTL", 24*time.Hour)

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

// CountryAllowed reports whether a geolocated country may drive currency
// selection.
func (c *Config) CountryAllowed(country string) bool {
	if len(c.AllowedCountries) == 0 {
		return true
	}
	for _, allowed := range c.AllowedCountries {
		if allowed == country {
			return true
		}
	}
	return false
}
