package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/scraper"
	"github.com/TEENet-io/bridge-mirror/sweeper"
	"github.com/TEENet-io/bridge-mirror/tokens"
)

const (
	ENV_CONFIG_FILE_PATH = "MIRROR_CONFIG"

	KEY_LOG_LEVEL            = "LOG_LEVEL"
	KEY_DB_FILE_PATH         = "DB_FILE_PATH"
	KEY_HTTP_IP              = "HTTP_IP"
	KEY_HTTP_PORT            = "HTTP_PORT"
	KEY_SCRAPE_INTERVAL      = "SCRAPE_INTERVAL"
	KEY_SWEEP_INTERVAL       = "SWEEP_INTERVAL"
	KEY_SWEEP_THRESHOLD      = "SWEEP_THRESHOLD"
	KEY_BRIDGE_PAIR_INTERVAL = "BRIDGE_PAIR_INTERVAL"
	KEY_TOKEN_INTERVAL       = "TOKEN_INTERVAL"
	KEY_PAGE_SIZE            = "PAGE_SIZE"
	KEY_MAX_ATTEMPTS         = "MAX_ATTEMPTS"
	KEY_RETRY_DELAY          = "RETRY_DELAY"
	KEY_LEDGER_MANAGER_URL   = "LEDGER_MANAGER_URL"
	KEY_EVM_RPC_URLS         = "EVM_RPC_URLS"
	KEY_REDIS_ADDR           = "REDIS_ADDR"
	KEY_NATS_URL             = "NATS_URL"
	KEY_SOURCES              = "SOURCES"
)

// SetDefaults registers the defaults of every optional key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KEY_LOG_LEVEL, "info")
	v.SetDefault(KEY_HTTP_IP, "0.0.0.0")
	v.SetDefault(KEY_HTTP_PORT, "8080")
	v.SetDefault(KEY_SCRAPE_INTERVAL, "10s")
	v.SetDefault(KEY_SWEEP_INTERVAL, sweeper.DefaultInterval.String())
	v.SetDefault(KEY_SWEEP_THRESHOLD, sweeper.DefaultThreshold.String())
	v.SetDefault(KEY_BRIDGE_PAIR_INTERVAL, tokens.DefaultPairInterval.String())
	v.SetDefault(KEY_TOKEN_INTERVAL, tokens.DefaultTokenInterval.String())
	v.SetDefault(KEY_PAGE_SIZE, scraper.DefaultPageSize)
	v.SetDefault(KEY_MAX_ATTEMPTS, scraper.DefaultMaxAttempts)
	v.SetDefault(KEY_RETRY_DELAY, "0s")
}

// PrepareMirrorServerConfig reads configuration variables and returns a
// MirrorServerConfig.
func PrepareMirrorServerConfig(v *viper.Viper) (*MirrorServerConfig, error) {
	dbPath := v.GetString(KEY_DB_FILE_PATH)
	if dbPath == "" {
		return nil, fmt.Errorf("%s must be set", KEY_DB_FILE_PATH)
	}

	rpcUrls := make(map[common.ChainId]string)
	for k, url := range v.GetStringMapString(KEY_EVM_RPC_URLS) {
		chain, err := common.ParseChainId(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KEY_EVM_RPC_URLS, err)
		}
		rpcUrls[chain] = url
	}

	var sources []SourceConfig
	if err := v.UnmarshalKey(KEY_SOURCES, &sources); err != nil {
		return nil, fmt.Errorf("%s: %w", KEY_SOURCES, err)
	}
	for _, s := range sources {
		if _, err := s.toSource(); err != nil {
			return nil, fmt.Errorf("%s: %w", KEY_SOURCES, err)
		}
	}

	return &MirrorServerConfig{
		DbFilePath: dbPath,
		// Http side
		HttpIp:   v.GetString(KEY_HTTP_IP),
		HttpPort: v.GetString(KEY_HTTP_PORT),
		// scraper side
		ScrapeInterval: v.GetDuration(KEY_SCRAPE_INTERVAL),
		PageSize:       v.GetUint64(KEY_PAGE_SIZE),
		MaxAttempts:    v.GetInt(KEY_MAX_ATTEMPTS),
		RetryDelay:     v.GetDuration(KEY_RETRY_DELAY),
		Sources:        sources,
		// maintenance side
		SweepInterval:      v.GetDuration(KEY_SWEEP_INTERVAL),
		SweepThreshold:     v.GetDuration(KEY_SWEEP_THRESHOLD),
		BridgePairInterval: v.GetDuration(KEY_BRIDGE_PAIR_INTERVAL),
		TokenInterval:      v.GetDuration(KEY_TOKEN_INTERVAL),
		// remote services
		LedgerManagerUrl: v.GetString(KEY_LEDGER_MANAGER_URL),
		EvmRpcUrls:       rpcUrls,
		RedisAddr:        v.GetString(KEY_REDIS_ADDR),
		NatsUrl:          v.GetString(KEY_NATS_URL),
	}, nil
}
