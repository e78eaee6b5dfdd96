package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL looks like "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	StatePrefix string        `env:"REDIS_STATE_PREFIX" envDefault:"fsm:state:"` // StatePrefix namespaces state record keys.
	StateTTL    time.Duration `env:"REDIS_STATE_TTL" envDefault:"0"`             // StateTTL expires idle records; zero keeps them forever.
}
