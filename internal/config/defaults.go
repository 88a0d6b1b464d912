package config

import "github.com/spf13/viper"

// HistoryNone disables the journal.
const HistoryNone = "none"

// setDefaults sets every key so that an empty file yields a working
// in-memory node.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.backend", "memory")
	v.SetDefault("ledger.path", "")
	v.SetDefault("ledger.cache_size", 4096)
	v.SetDefault("ledger.compression", "lz4")

	v.SetDefault("rent.lamports_per_byte_year", 3480)
	v.SetDefault("rent.exemption_threshold", 2.0)

	v.SetDefault("engine.max_commit_attempts", 8)
	v.SetDefault("engine.submit_concurrency", 0)

	v.SetDefault("history.driver", HistoryNone)
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
