package fsm

import "time"

const (
	DefaultName         = "FSM"
	DefaultRetries      = 20
	DefaultBlockingWait = 250 * time.Millisecond
)

// Config holds env-driven engine settings.
type Config struct {
	Name         string        `env:"FSM_NAME" envDefault:"FSM"`
	Retries      int           `env:"FSM_RETRIES" envDefault:"20"`
	BlockingWait time.Duration `env:"FSM_BLOCKING_WAIT" envDefault:"250ms"`
}
