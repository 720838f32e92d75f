// Package journal stores diary entries and their generated comic
// artifacts in SQLite. Entry bodies, storyboard text, and panel prompts
// are encoded through a Codec before they touch disk.
package journal

import (
	"time"
	"unicode/utf8"
)

// Codec seals and opens sensitive text. Satisfied by vault.Vault.
type Codec interface {
	Encode(plaintext string) []byte
	Decode(encoded []byte) (string, error)
}

// Entry is a full journal entry with its body decoded.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Body      string    `json:"body"`
	Mood      string    `json:"mood,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Summary is the list-view projection of an entry. Preview holds the
// first previewRunes runes of the decoded body.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Preview   string    `json:"preview"`
	Mood      string    `json:"mood,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Draft is the write shape for Upsert. An empty ID creates a new entry.
type Draft struct {
	ID   string   `json:"id,omitempty"`
	Body string   `json:"body"`
	Mood string   `json:"mood,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

// Storyboard is the drafting-stage text kept for re-rendering.
type Storyboard struct {
	ID        string    `json:"id"`
	EntryID   string    `json:"entry_id"`
	Body      string    `json:"body"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Panel is one rendered comic panel.
type Panel struct {
	ID        string `json:"id"`
	EntryID   string `json:"entry_id"`
	Index     int    `json:"index"`
	Prompt    string `json:"prompt,omitempty"`
	Dialogue  string `json:"dialogue,omitempty"`
	Style     string `json:"style,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}

const previewRunes = 50

// preview truncates a decoded body for list display.
func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewRunes]) + "…"
}
