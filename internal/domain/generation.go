package domain

import "time"

// PromptGeneration represents one completed image-to-prompt job.
// Records are immutable once created: the pipeline inserts them only
// after the blob is stored and the captioner has returned text, and no
// update endpoint exists.
type PromptGeneration struct {
	ID               string    `gorm:"type:text;primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index:idx_prompt_generations_user" json:"user_id"`
	ImagePath        string    `gorm:"type:text;not null" json:"image_path"`
	GeneratedPrompt  string    `gorm:"type:text;not null" json:"generated_prompt"`
	OriginalFileName string    `gorm:"type:text;not null" json:"original_file_name"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `gorm:"type:text" json:"mime_type"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for PromptGeneration.
func (PromptGeneration) TableName() string {
	return "prompt_generations"
}

// GenerationResource is the API projection of a record. It carries a
// resolved image URL instead of the internal storage key and omits the
// owner reference, which is implied by the authenticated request.
type GenerationResource struct {
	ID               string    `json:"id"`
	ImageURL         string    `json:"image_url"`
	GeneratedPrompt  string    `json:"generated_prompt"`
	OriginalFileName string    `json:"original_file_name"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
