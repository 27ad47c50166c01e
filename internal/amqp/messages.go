package amqp

import (
	"encoding/json"
	"time"
)

// DatasetRefreshMessage announces that the transaction collection was
// replaced from the upstream source. Consumers re-read from the store; the
// message carries only the shape of the refresh, not the data.
type DatasetRefreshMessage struct {
	Count     int       `json:"count"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetRefreshMessage creates a refresh message for a completed reload.
func NewDatasetRefreshMessage(count int, source string) *DatasetRefreshMessage {
	return &DatasetRefreshMessage{
		Count:     count,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetRefreshMessageFromJSON decodes a refresh event from its wire form.
// This service only publishes; the decoder is the consumer-side contract for
// queue readers of what PublishDatasetRefresh writes.
func DatasetRefreshMessageFromJSON(data []byte) (*DatasetRefreshMessage, error) {
	var msg DatasetRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
