package config

import (
    "strings"
    "time"

    "github.com/spf13/viper"
)

type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

func loadRateLimitConfig(v *viper.Viper) RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool(v, "RATE_LIMIT_ENABLED", true),
        Capacity:       envInt(v, "RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt(v, "RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur(v, "RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur(v, "RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr(v, "RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr(v, "RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool(v, "RATE_LIMIT_DEBUG", false),
    }
    if b := envInt(v, "RATE_LIMIT_BURST", -1); b > 0 { def.Capacity = b }
    if every := envDur(v, "RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        def.RefillTokens = 1
        def.RefillInterval = every
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

func envStr(v *viper.Viper, k, d string) string {
    if s := strings.TrimSpace(v.GetString(k)); s != "" { return s }
    return d
}
func envBool(v *viper.Viper, k string, d bool) bool {
    switch strings.ToLower(strings.TrimSpace(v.GetString(k))) {
    case "1", "true", "yes", "on": return true
    case "0", "false", "no", "off": return false
    }
    return d
}
func envInt(v *viper.Viper, k string, d int) int {
    if !v.IsSet(k) || strings.TrimSpace(v.GetString(k)) == "" { return d }
    return v.GetInt(k)
}
func envDur(v *viper.Viper, k string, d time.Duration) time.Duration {
    s := strings.TrimSpace(v.GetString(k))
    if s == "" { return d }
    if dur, err := time.ParseDuration(s); err == nil { return dur }
    return d
}
