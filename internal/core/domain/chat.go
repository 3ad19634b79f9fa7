package domain

// Chat roles as expected by the generation API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	// Role is RoleUser or RoleModel.
	Role string

	// Content is the message text.
	Content string
}

// SourcesDelimiter separates the streamed answer prose from the terminal
// citation payload. The final chunk of a streamed answer has the literal
// form SourcesDelimiter + <JSON array of Source>.
//
// In-process consumers receive the frame as a distinct channel element, so
// the delimiter only matters once the stream is flattened onto a byte
// transport.
const SourcesDelimiter = "__SOURCES__:"
