package collector

import "time"

type Config struct {
	// Delay between the end of one tick and the start of the next
	Interval  time.Duration `envconfig:"GLOVE_INTERVAL" default:"1s"`
	FlushSize int           `envconfig:"GLOVE_FLUSH_SIZE" default:"10"`
}
