package internal

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	IdentityQuery = "query"
	IdentityToken = "token"
)

// DefaultOrigins is the web client whitelist used when ALLOWED_ORIGINS is unset.
var DefaultOrigins = []string{
	"http://localhost:5173",
	"https://social-media-app-3reb.onrender.com",
	"https://social-media-app-k3t8.vercel.app",
}

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	GrpcPort int    `env:"GRPC_PORT,default=0"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=./data/bluge"`

	JwtSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	MaxBodyLength        int           `env:"MAX_BODY_LENGTH,default=4096"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	RegistryShards       int           `env:"REGISTRY_SHARDS,default=32"`
	WsPingInterval       time.Duration `env:"WS_PING_INTERVAL,default=54s"`
	WsPongTimeout        time.Duration `env:"WS_PONG_TIMEOUT,default=60s"`
	WsWriteTimeout       time.Duration `env:"WS_WRITE_TIMEOUT,default=10s"`
	WsIdentity           string        `env:"WS_IDENTITY,default=query"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`

	SendRatePerSecond float64 `env:"SEND_RATE_PER_SECOND,default=5"`
	SendBurst         int     `env:"SEND_BURST,default=10"`

	CensoredWordsFile string `env:"CENSORED_WORDS_FILE"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	GcInterval      time.Duration `env:"GC_INTERVAL,default=10m"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Origins splits the comma separated ALLOWED_ORIGINS, dropping blanks.
func (c Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return DefaultOrigins
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c Config) Validate() error {
	if c.WsIdentity != IdentityQuery && c.WsIdentity != IdentityToken {
		return fmt.Errorf("WS_IDENTITY must be %q or %q, got %q", IdentityQuery, IdentityToken, c.WsIdentity)
	}
	if c.MaxBodyLength <= 0 {
		return fmt.Errorf("MAX_BODY_LENGTH must be positive, got %d", c.MaxBodyLength)
	}
	if c.WsPingInterval >= c.WsPongTimeout {
		return fmt.Errorf("WS_PING_INTERVAL (%s) must be shorter than WS_PONG_TIMEOUT (%s)", c.WsPingInterval, c.WsPongTimeout)
	}
	if origins := c.Origins(); len(origins) == 0 || slices.Contains(origins, "*") {
		return fmt.Errorf("ALLOWED_ORIGINS must list explicit origins, got %q", c.AllowedOrigins)
	}
	_, err := CharacterRune(c.CharReplacement)
	return err
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
