package classifier

import "github.com/go-sod/glove/internal/geom"

type AlgType string

const (
	AlgTypeBrute  AlgType = "BRUTE"
	AlgTypeKDTree AlgType = "KD_TREE"
)

type Config struct {
	// Path to the XDR model artifact, or a labelled CSV dataset
	ModelPath string `envconfig:"GLOVE_MODEL_PATH" default:"models/gesture_model.xdr"`
	// Overrides the number of neighbours stored in the artifact when positive
	K int `envconfig:"GLOVE_KNN_K"`
	// Overrides the distance function stored in the artifact when set
	Distance geom.DistanceFuncType `envconfig:"GLOVE_KNN_DISTANCE"`
	Alg      AlgType               `envconfig:"GLOVE_KNN_ALG" default:"KD_TREE"`
}
