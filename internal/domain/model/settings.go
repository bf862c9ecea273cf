package model

// SamplingParams enumerates the recognized sampling options sent with a
// completion request. LogitBias carries the raw JSON text of a token
// bias map and is parsed at request-build time, defaulting to empty.
type SamplingParams struct {
	Model            string
	Temperature      float64
	TopP             float64
	N                int
	Stop             string
	MaxTokens        int // 0 means no explicit limit
	PresencePenalty  float64
	FrequencyPenalty float64
	LogitBias        string
}

// Settings is the per-process chat configuration the orchestrator reads
// on each submission.
type Settings struct {
	SamplingParams

	AutoTitle   bool
	Voice       string
	SpeechModel string
}
