package domain

// RelevantSegment is a lexically-scored excerpt of a record's content judged
// relevant to a query. Derived at query time, never stored. Line numbers are
// 1-based and inclusive.
type RelevantSegment struct {
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
	Segment   string `json:"segment"`
	Score     int    `json:"-"`
}

// QueryResult is one ranked hit from the similarity search: the matched
// record, its cosine similarity to the query, and the extracted segments.
type QueryResult struct {
	Record     SourceRecord
	Similarity float64
	Segments   []RelevantSegment
}

// Source is the citation metadata emitted after a streamed answer.
// It is the JSON payload of the __SOURCES__ terminal frame.
type Source struct {
	FileName         string            `json:"fileName"`
	Similarity       float64           `json:"similarity"`
	RelevantSegments []RelevantSegment `json:"relevantSegments"`
}

// Answer is the non-streaming query response.
type Answer struct {
	Answer  string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}

// AnswerSource is the trimmed citation used in non-streaming answers.
type AnswerSource struct {
	FileName   string  `json:"fileName"`
	Similarity float64 `json:"similarity"`
}
