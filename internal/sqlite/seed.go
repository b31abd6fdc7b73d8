package sqlite

import "github.com/mesh-intelligence/rowedit/pkg/types"

// SampleRecords returns the two sample rows written by "rowedit init --sample".
func SampleRecords() []types.Record {
	return []types.Record{
		types.NewRecord("1", "name", "Alpha", "value", "01"),
		types.NewRecord("2", "name", "Beta", "value", "02"),
	}
}
