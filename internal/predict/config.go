package predict

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"GLOVE_PREDICT_REQUEST_TIMEOUT" default:"30s"`
	MaxDataItemsLen int           `envconfig:"GLOVE_PREDICT_MAX_DATA_ITEMS_LEN" default:"64"`
}
