// Package kafka publishes committed classifications to a Kafka topic for
// downstream alerting. The association store stays the system of record;
// publishing is best-effort.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/pgcseis/wellassoc/internal/domain"
)

// Notifier produces one message per classified earthquake.
// It implements assoc.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	runID  string
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the classification topic.
func NewNotifier(brokers []string, topic, runID string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, runID: runID, logger: logger}
}

// Publish serializes and publishes a batch of classifications in a single
// WriteMessages call.
func (n *Notifier) Publish(ctx context.Context, classified []domain.Classification) error {
	if len(classified) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(classified))
	for i := range classified {
		msg, err := serializeToMessage(classified[i], n.runID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return n.writer.WriteMessages(ctx, msgs...)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// classificationMessage is the wire shape, column-named like the classified
// table so downstream consumers need no extra mapping.
type classificationMessage struct {
	QuakeID       int64               `json:"quake_id"`
	BestStage     int64               `json:"best_stage"`
	BestStageProb float64             `json:"best_stage_prob"`
	BestWell      string              `json:"best_well"`
	BestWellType  domain.ActivityType `json:"best_well_type"`
	BestWellProb  float64             `json:"best_well_prob"`
	BestPad       string              `json:"best_pad"`
	BestPadProb   float64             `json:"best_pad_prob"`
	BestDKm       float64             `json:"best_d_km"`
	BestDTDays    float64             `json:"best_dt_days"`
	NHFWells      int                 `json:"n_hf_wells"`
	NWDWells      int                 `json:"n_wd_wells"`
	NProdWells    int                 `json:"n_prod_wells"`
	NPadWells     int                 `json:"n_pad_wells"`
	RunID         string              `json:"run_id"`
}

// serializeToMessage marshals a classification into a Kafka message keyed by
// quake id, so re-runs of the same quake land on the same partition.
func serializeToMessage(c domain.Classification, runID string) (kafkago.Message, error) {
	data, err := json.Marshal(classificationMessage{
		QuakeID:       c.QuakeID,
		BestStage:     c.BestStage,
		BestStageProb: c.BestStageProb,
		BestWell:      c.BestWell,
		BestWellType:  c.BestWellType,
		BestWellProb:  c.BestWellProb,
		BestPad:       c.BestPad,
		BestPadProb:   c.BestPadProb,
		BestDKm:       c.BestDistanceKm,
		BestDTDays:    c.BestDTDays,
		NHFWells:      c.HFWells,
		NWDWells:      c.WDWells,
		NProdWells:    c.ProdWells,
		NPadWells:     c.PadWells,
		RunID:         runID,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize classification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(c.QuakeID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "best_well_type", Value: []byte(c.BestWellType)},
			{Key: "run_id", Value: []byte(runID)},
		},
	}, nil
}
