package domain

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	// Text is the language model's answer.
	Text string

	// Sources identifies the chunks whose text was included in the
	// prompt, in retrieval order, for traceability.
	Sources []SourceRef

	// Model is the LLM model that produced the answer.
	Model string
}

// SourceRef is a citation pointing back to an indexed chunk.
type SourceRef struct {
	// ChunkID is the cited chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// HeadingPath locates the chunk within the document.
	HeadingPath string

	// Score is the chunk's similarity to the question.
	Score float64
}
