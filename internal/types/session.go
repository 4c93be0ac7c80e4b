package types

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session progress states. A session starts in_progress and moves to
// exactly one of the terminal states.
const (
	SessionProgressInProgress = "in_progress"
	SessionProgressSuccess    = "success"
	SessionProgressError      = "error"
)

func ValidSessionProgress(status string) bool {
	switch status {
	case SessionProgressInProgress, SessionProgressSuccess, SessionProgressError:
		return true
	default:
		return false
	}
}

// Session tracks one course-creation request. Actions is the serialized
// progress log, a JSON array of human-readable strings.
type Session struct {
	SessionID   uuid.UUID      `gorm:"column:session_id;type:uuid;primaryKey" json:"session_id"`
	Actions     datatypes.JSON `gorm:"column:actions" json:"actions"`
	Description string         `gorm:"column:description" json:"description"`
	Level       string         `gorm:"column:level" json:"level"`
	Progress    string         `gorm:"column:progress;not null;default:in_progress" json:"progress"`
}

func (Session) TableName() string { return "sessions" }

// ActionList decodes the stored action log. A missing or empty column
// decodes to an empty list, never nil.
func (s *Session) ActionList() ([]string, error) {
	if len(s.Actions) == 0 {
		return []string{}, nil
	}
	var actions []string
	if err := json.Unmarshal(s.Actions, &actions); err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []string{}
	}
	return actions, nil
}

// EmptyActions is the stored form of a fresh, empty action log.
func EmptyActions() datatypes.JSON {
	return datatypes.JSON([]byte(`[]`))
}

// EncodeActions serializes an action log for storage.
func EncodeActions(actions []string) (datatypes.JSON, error) {
	if actions == nil {
		actions = []string{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
