// Package provider holds the external generation backends the studio
// pipeline talks to: a local Ollama server for storyboard text and an
// HTTP image renderer for panels.
package provider

import "context"

// TextGenerator produces storyboard text from a prompt pair. onDelta is
// invoked with each streamed fragment so callers can surface partial
// output; it may be nil.
type TextGenerator interface {
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, onDelta func(fragment string)) (string, error)
	Health(ctx context.Context) error
	ModelName() string
}

// ImageRenderer turns one panel prompt into image bytes.
type ImageRenderer interface {
	Render(ctx context.Context, prompt, style string) ([]byte, error)
}
