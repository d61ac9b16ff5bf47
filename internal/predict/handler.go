package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/httputil"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/vocabulary"
)

const maxBodyBytes = 1 << 20

type Vector struct {
	Vec []float64 `json:"vector"`
}

// Request is the body accepted by the predict endpoint.
type Request struct {
	Data []Vector `json:"data"`
}

type Item struct {
	Vec        []float64          `json:"vector"`
	Prediction reading.Prediction `json:"prediction"`
	Phrase     string             `json:"phrase,omitempty"`
}

type Response struct {
	Data []Item `json:"data"`
}

// NewHandler serves ad-hoc classification of readings. vocab may be nil.
func NewHandler(cfg *Config, cls classifier.Classifier, vocab *vocabulary.Vocabulary) (http.Handler, error) {
	if cls == nil {
		return nil, fmt.Errorf("classifier is not defined")
	}
	return &handler{
		cfg:        cfg,
		classifier: cls,
		vocabulary: vocab,
	}, nil
}

type handler struct {
	classifier classifier.Classifier
	vocabulary *vocabulary.Vocabulary
	cfg        *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Data) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "data items must not be empty"}`)
		return
	}
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}
	for i, dat := range req.Data {
		if len(dat.Vec) != h.classifier.Dimensions() {
			httputil.RespBadRequest(ctx, w, `{"error": "item %d has %d values, expected %d"}`, i, len(dat.Vec), h.classifier.Dimensions())
			return
		}
	}

	// each goroutine owns one index of respData
	respData := make([]Item, len(req.Data))
	errGrp, grpCtx := errgroup.WithContext(ctx)
	for i, dat := range req.Data {
		i, dat := i, dat
		errGrp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			values := reading.New(dat.Vec...)
			prediction, err := h.classifier.Predict(values)
			if err != nil {
				return fmt.Errorf("predict error: %w", err)
			}
			respData[i] = Item{Vec: values, Prediction: prediction}
			if h.vocabulary != nil {
				if phrase, err := h.vocabulary.Lookup(prediction); err == nil {
					respData[i].Phrase = phrase
				}
			}
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "predict processing error, %v"}`, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, Response{Data: respData})
}
