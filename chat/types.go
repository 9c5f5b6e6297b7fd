package chat

// Source describes one retrieved chunk the answer drew on.
type Source struct {
	ChunkID  string
	FileName string
	FileType string
	Snippet  string
	Score    float64
}

// Response is the outcome of one chat turn.
type Response struct {
	Answer  string
	Sources []Source
}

// Config tunes a single chat call.
type Config struct {
	// TopK bounds how many chunks are retrieved as context.
	TopK int
	// Model overrides the configured LLM model for this call; empty keeps
	// the default. Requires a client that can switch models.
	Model string
}
