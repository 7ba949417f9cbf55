package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Candidate struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Firstname     string         `gorm:"size:100;not null" json:"firstname"`
	Lastname      string         `gorm:"size:100" json:"lastname"`
	EmailAddress  string         `gorm:"size:255;uniqueIndex;not null" json:"email_address"`
	ContactNumber string         `gorm:"size:32" json:"contact_number"`
	ResumeText    string         `gorm:"type:text" json:"resume_text,omitempty"`
	ResumeObject  datatypes.JSON `json:"resume_object,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ResumeContext is the resume as handed to the model: the structured profile
// when one was extracted, otherwise the raw text.
func (c *Candidate) ResumeContext() string {
	return preferStructured(c.ResumeObject, c.ResumeText)
}

func preferStructured(obj datatypes.JSON, text string) string {
	if s := string(obj); len(obj) > 0 && s != "null" && s != "{}" {
		return s
	}
	return text
}
