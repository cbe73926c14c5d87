package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
)

// ErrInvalidSave is returned for a blob that is not a JSON save object.
var ErrInvalidSave = errors.New("invalid save data")

// Encode serializes a state into the save blob.
func Encode(st economy.State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Decode parses a save blob over the default state, so fields missing from
// older saves keep their default values, then repairs the result.
func Decode(data []byte, cat *catalog.Catalog, now time.Time) (economy.State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return economy.State{}, ErrInvalidSave
	}

	st := cat.DefaultState(now)
	if err := json.Unmarshal(trimmed, &st); err != nil {
		return economy.State{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	cat.Normalize(&st)
	return st, nil
}
