package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/wfunc/killzone/logger"
)

type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Client  ClientConfig   `mapstructure:"client"`
	Display DisplayConfig  `mapstructure:"display"`
	Log     logger.Options `mapstructure:"log"`
	Monitor MonitorConfig  `mapstructure:"monitor"`
	Journal JournalConfig  `mapstructure:"journal"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	HTTPPort  int    `mapstructure:"http_port"`
	TCPPort   int    `mapstructure:"tcp_port"`
	Protocol  string `mapstructure:"protocol"`
	Transport string `mapstructure:"transport"`
	WSPath    string `mapstructure:"ws_path"`
}

// BaseURL is the root of the text protocol endpoints.
func (s ServerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.HTTPPort)
}

// StreamAddress is the host:port of the binary protocol listener.
func (s ServerConfig) StreamAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.TCPPort)
}

type ClientConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	MaxTicks        int           `mapstructure:"max_ticks"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	WorldEvery      int           `mapstructure:"world_every"`
	StatusEvery     int           `mapstructure:"status_every"`
	MessageTTL      int           `mapstructure:"message_ttl"`
	DefaultName     string        `mapstructure:"default_name"`
}

type DisplayConfig struct {
	Width               int  `mapstructure:"width"`
	Height              int  `mapstructure:"height"`
	StatusRows          int  `mapstructure:"status_rows"`
	WallGlyphs          bool `mapstructure:"wall_glyphs"`
	RedrawOnCountChange bool `mapstructure:"redraw_on_count_change"`
}

type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type JournalConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

const (
	ProtocolText   = "text"
	ProtocolBinary = "binary"

	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.http_port", 3000)
	v.SetDefault("server.tcp_port", 3001)
	v.SetDefault("server.protocol", ProtocolText)
	v.SetDefault("server.transport", TransportTCP)
	v.SetDefault("server.ws_path", "/ws")

	v.SetDefault("client.tick_interval", 50*time.Millisecond)
	v.SetDefault("client.max_ticks", 100000)
	v.SetDefault("client.connect_attempts", 10)
	v.SetDefault("client.request_timeout", 3*time.Second)
	v.SetDefault("client.world_every", 5)
	v.SetDefault("client.status_every", 10)
	v.SetDefault("client.message_ttl", 30)
	v.SetDefault("client.default_name", "Player")

	v.SetDefault("display.width", 40)
	v.SetDefault("display.height", 20)
	v.SetDefault("display.status_rows", 4)
	v.SetDefault("display.wall_glyphs", false)
	v.SetDefault("display.redraw_on_count_change", true)

	v.SetDefault("log.path", "killzone.log")
	v.SetDefault("log.level", "info")

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.address", ":9100")

	v.SetDefault("journal.driver", "none")
	v.SetDefault("journal.postgres.host", "127.0.0.1")
	v.SetDefault("journal.postgres.port", 5432)
	v.SetDefault("journal.postgres.user", "killzone")
	v.SetDefault("journal.postgres.dbname", "killzone")
}

// LoadConfig reads config.yaml from path. A missing file is fine; every
// key has a default and KILLZONE_* environment variables override.
func LoadConfig(path string) (config *Config, err error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("killzone")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return nil, err
	}
	err = config.Validate()
	return
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Protocol {
	case ProtocolText, ProtocolBinary:
	default:
		return fmt.Errorf("unknown protocol %q", c.Server.Protocol)
	}
	switch c.Server.Transport {
	case TransportTCP, TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size %dx%d is invalid", c.Display.Width, c.Display.Height)
	}
	if c.Display.Width > 255 || c.Display.Height > 255 {
		return fmt.Errorf("display size %dx%d exceeds the grid coordinate range", c.Display.Width, c.Display.Height)
	}
	if c.Client.ConnectAttempts <= 0 {
		return errors.New("client.connect_attempts must be positive")
	}
	if c.Client.WorldEvery <= 0 || c.Client.StatusEvery <= 0 {
		return errors.New("client cadences must be positive")
	}
	return nil
}
