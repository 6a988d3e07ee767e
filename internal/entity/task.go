package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Task is a single task record. OwnerID references User.ID but nothing
// enforces it.
type Task struct {
	ID      string `json:"_id"`
	Task    string `json:"task"`
	TaskID  string `json:"taskId"` // opaque, caller supplied
	Stage   string `json:"stage"`
	OwnerID string `json:"userId,omitempty"`
}

// NewTask is the create payload.
type NewTask struct {
	Task   string `json:"task"`
	TaskID string `json:"taskId"`
	Stage  string `json:"stage"`
}

// TaskUpdate is the update payload. Nil fields are left untouched.
//
// Text has no counterpart on Task and is dropped by every store.
type TaskUpdate struct {
	Text  *string `json:"text"`
	Stage *string `json:"stage"`
}

// UnmarshalJSON decodes loosely typed fields. A null stage clears it to
// the empty string and a number or boolean stage is kept as its text.
// A text that is not a string is ignored.
func (u *TaskUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text  json.RawMessage `json:"text"`
		Stage json.RawMessage `json:"stage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var text string
	if len(raw.Text) > 0 && json.Unmarshal(raw.Text, &text) == nil {
		u.Text = &text
	}

	if len(raw.Stage) > 0 {
		stage, err := looseString(raw.Stage)
		if err != nil {
			return fmt.Errorf("stage: %w", err)
		}
		u.Stage = &stage
	}

	return nil
}

func looseString(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}

	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cannot use %s as a string", raw)
	}
}

/*
Mysql Table

CREATE TABLE tasks (
	id INT AUTO_INCREMENT PRIMARY KEY,
	task TEXT NOT NULL,
	task_id VARCHAR(255) NOT NULL,
	stage VARCHAR(255) NOT NULL,
	user_id VARCHAR(64) NULL
);

Mongo collection "tasks":
{ _id: ObjectId, task, taskId, stage, userId?: ObjectId }
*/
