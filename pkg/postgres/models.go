package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB stores arbitrary JSON in a jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// User is an onboarded caller. PhoneNumber stays nil until a pool number
// has been handed out.
type User struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	Email       string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PhoneNumber *string   `json:"phone_number" gorm:"type:varchar(32);uniqueIndex"`
	Preferences JSONB     `json:"preferences" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PhonePoolEntry is one number in the pool. An entry moves from
// unassigned to assigned exactly once; there is no release path.
type PhonePoolEntry struct {
	ID         int64     `json:"id" gorm:"primary_key;autoIncrement"`
	Number     string    `json:"number" gorm:"type:varchar(32);uniqueIndex;not null"`
	Assigned   bool      `json:"assigned" gorm:"not null;default:false;index"`
	AssignedTo *string   `json:"assigned_to" gorm:"type:uuid"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (PhonePoolEntry) TableName() string { return "phone_pool" }

// ConversationLog is one exchange: what the caller said and what SAATHI
// answered. Append-only.
type ConversationLog struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID      string    `json:"user_id" gorm:"type:uuid;index;not null"`
	CallSid     string    `json:"call_sid,omitempty" gorm:"type:varchar(64);index"`
	UserMessage string    `json:"user_message" gorm:"type:text"`
	AIResponse  string    `json:"ai_response" gorm:"column:ai_response;type:text"`
	AudioURL    string    `json:"audio_url,omitempty" gorm:"type:text"`
	Confidence  float64   `json:"confidence,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
