package forecast

import (
	"encoding/json"
	"fmt"

	"SalesCast/internal/domain/service"
)

// envelope is the persisted blob layout: a type discriminator plus the
// candidate's own serialized state. The model store only ever sees bytes.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps a fitted model into an opaque blob for the model store.
func Encode(m service.Model) ([]byte, error) {
	payload, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal %s model: %w", m.Type(), err)
	}
	return json.Marshal(envelope{Type: m.Type(), Payload: payload})
}

// Decode reconstructs the right concrete model from a stored blob. This is
// the single place that branches on model type; every caller works against
// service.Model.
func Decode(blob []byte) (service.Model, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("decode model envelope: %w", err)
	}

	var m service.Model
	switch env.Type {
	case CandidateNaive:
		m = &NaiveModel{}
	case CandidateSeasonalNaive:
		m = &SeasonalNaiveModel{}
	case CandidateDecomposition:
		m = &DecompositionModel{}
	case CandidateSARIMA:
		m = &SARIMAModel{}
	case CandidateBoostedTrees:
		m = &BoostedTreesModel{}
	default:
		return nil, fmt.Errorf("unknown model type %q in blob", env.Type)
	}
	if err := json.Unmarshal(env.Payload, m); err != nil {
		return nil, fmt.Errorf("decode %s model: %w", env.Type, err)
	}
	return m, nil
}
