package acc

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/mailer"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/mailer/resend"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/redis"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/storage"
)

// ErrNoCookieSecret is returned by Validate when sessions cannot be signed.
var ErrNoCookieSecret = errors.New("acc: COOKIE_SECRET is required to serve HTTP")

// Config is the whole process configuration, read from the environment.
type Config struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// LiveSite hides the automation handlers used by end-to-end tests.
	LiveSite bool `env:"LIVE_SITE" envDefault:"true"`

	CookieSecret string   `env:"COOKIE_SECRET"`
	CookieSecure bool     `env:"COOKIE_SECURE" envDefault:"true"`
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:","`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	JobWorkers int `env:"JOB_WORKERS" envDefault:"10"`

	DB      db.Config
	Redis   redis.Config
	Storage storage.Config
	Mail    mailer.Config
	Resend  resend.Config
	Log     logger.Config
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("acc: load config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings only the HTTP server needs.
func (c Config) Validate() error {
	if c.CookieSecret == "" {
		return ErrNoCookieSecret
	}
	return nil
}
