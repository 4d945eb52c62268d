package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers.
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Import *ProfileImportMessage
}

// ProfileImportMessage asks for a full profile update.
type ProfileImportMessage struct {
	ProfileID int64          `json:"profile_id"`
	Profile   models.Profile `json:"profile"`
}

// ParseImport decodes the value as a ProfileImportMessage. The profile id in
// the envelope wins over the one in the body.
func (m *IncomingMessage) ParseImport() error {
	var msg ProfileImportMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return err
	}
	if msg.ProfileID == 0 {
		msg.ProfileID = msg.Profile.ID
	}
	if msg.ProfileID == 0 {
		return fmt.Errorf("import message has no profile id")
	}
	msg.Profile.ID = msg.ProfileID
	m.Import = &msg
	return nil
}
