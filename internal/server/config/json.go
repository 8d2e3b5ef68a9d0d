package config

import (
	"encoding/json"
	"os"

	"github.com/petitions/petitiond/internal/flagx"
	"github.com/petitions/petitiond/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Intervals use timex.Duration
// so they may be written as "10s" or as integer nanoseconds.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	BcryptCost      int            `json:"bcrypt_cost"`
	PhotoBackend    string         `json:"photo_backend"`
	PhotoDir        string         `json:"photo_dir"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	LoginRate       float64        `json:"login_rate"`
	LoginBurst      int            `json:"login_burst"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogLevel        string         `json:"log_level"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:        c.HTTPAddr,
		DatabaseDSN:     c.DatabaseDSN,
		BcryptCost:      c.BcryptCost,
		PhotoBackend:    c.PhotoBackend,
		PhotoDir:        c.PhotoDir,
		S3RootUser:      c.S3RootUser,
		S3RootPassword:  c.S3RootPassword,
		S3Bucket:        c.S3Bucket,
		S3Region:        c.S3Region,
		S3BaseEndpoint:  c.S3BaseEndpoint,
		LoginRate:       c.LoginRate,
		LoginBurst:      c.LoginBurst,
		ShutdownTimeout: timex.Duration{Duration: c.ShutdownTimeout},
		LogLevel:        c.LogLevel,
	}
}

// parseJson overlays values from the JSON file named by -c or -config.
// Keys absent from the file keep their current value. An unreadable or
// malformed file panics, as a bad flag does.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	// Decoding onto the current values leaves absent keys untouched.
	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.BcryptCost = c.BcryptCost
	config.PhotoBackend = c.PhotoBackend
	config.PhotoDir = c.PhotoDir
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.LoginRate = c.LoginRate
	config.LoginBurst = c.LoginBurst
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
	config.LogLevel = c.LogLevel
}
