package chain

import "github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"

// OutputCache holds outputs created by the transactions of a single block.
// It is owned by the ingestion of that block and must not be shared.
type OutputCache struct {
	outputs map[model.OutputKey]model.OutputRecord
}

// NewOutputCache returns an empty cache sized for roughly capacity outputs.
func NewOutputCache(capacity int) *OutputCache {
	if capacity < 0 {
		capacity = 0
	}
	return &OutputCache{outputs: make(map[model.OutputKey]model.OutputRecord, capacity)}
}

// Put stores or overwrites the record for key.
func (c *OutputCache) Put(key model.OutputKey, record model.OutputRecord) {
	c.outputs[key] = record
}

// Get looks key up.
func (c *OutputCache) Get(key model.OutputKey) (model.OutputRecord, bool) {
	record, ok := c.outputs[key]
	return record, ok
}

// Len returns the number of cached outputs.
func (c *OutputCache) Len() int {
	return len(c.outputs)
}
