package logging

type Config struct {
	Level       string `envconfig:"GLOVE_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"GLOVE_LOG_DEVELOPMENT"`
}
