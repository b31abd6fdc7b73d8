package sqlite

// recordJSON is one line of records.jsonl. File order is display order.
type recordJSON struct {
	RecordID  string            `json:"record_id"`
	Fields    map[string]string `json:"fields"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}
