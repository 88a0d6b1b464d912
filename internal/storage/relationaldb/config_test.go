package relationaldb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"ok", func(c *Config) {}, nil},
		{"driver", func(c *Config) { c.Driver = "mysql" }, ErrInvalidDriver},
		{"dsn", func(c *Config) { c.DSN = "" }, ErrMissingDSN},
		{"conns", func(c *Config) { c.MaxOpenConns = -1 }, ErrInvalidMaxOpenConns},
		{"timeout", func(c *Config) { c.DefaultTimeout = 0 }, ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig(DriverSQLite, "file.db")
			tt.mutate(c)
			err := c.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDatabaseErrorUnwraps(t *testing.T) {
	err := NewConfigurationError("open", "invalid configuration", ErrMissingDSN)
	require.ErrorIs(t, err, ErrMissingDSN)
	require.Equal(t, ErrorTypeConfiguration, err.Type)
}

func TestQueryPlaceholders(t *testing.T) {
	j := &SQLJournal{dialect: Dialect{Placeholder: func(n int) string { return "$" + string(rune('0'+n)) }}}
	require.Equal(t, "a = $1 AND b = $2", j.query("a = ? AND b = ?"))

	plain := &SQLJournal{}
	require.Equal(t, "a = ?", plain.query("a = ?"))
}
