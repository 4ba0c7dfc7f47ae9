package config

// Redis backs the rate limiter and the catalog response cache.  When the
// server cannot be reached at startup NewRedisClient returns nil and both
// middlewares turn themselves into pass-throughs.

import (
    "context"
    "crypto/tls"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/spf13/viper"
)

// RedisConfig holds the connection settings read from
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
    addr := v.GetString("REDIS_ADDR")
    host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    tlsEnv := v.GetString("REDIS_TLS")
    return RedisConfig{
        Addr:     addr,
        Password: v.GetString("REDIS_PASSWORD"),
        DB:       envInt(v, "REDIS_DB", 0),
        TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
    }
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  The returned client is nil if the server is unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
