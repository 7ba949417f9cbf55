package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Position struct {
	ID                 string         `gorm:"primaryKey;size:36" json:"id"`
	Name               string         `gorm:"size:255;uniqueIndex;not null" json:"name"`
	OrganizationID     int            `gorm:"index" json:"organization_id"`
	IntroductionSpeech string         `gorm:"type:text" json:"introduction_speech,omitempty"`
	JDText             string         `gorm:"type:text" json:"jd_text,omitempty"`
	JDObject           datatypes.JSON `json:"jd_object,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// JobDescriptionContext is the job description as handed to the model.
func (p *Position) JobDescriptionContext() string {
	return preferStructured(p.JDObject, p.JDText)
}
