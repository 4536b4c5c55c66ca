// Package hub fans dashboard updates out to websocket subscribers.
//
// Each Hub owns one stream (status, bones or camera). A single goroutine
// owns the subscriber set; every subscriber has its own writer goroutine,
// so slow browsers never block the capture loop.
package hub

// Kind selects the websocket frame type a message is written as.
type Kind int

const (
	// Text is a JSON envelope.
	Text Kind = iota
	// Binary is raw bytes, e.g. a JPEG camera frame.
	Binary
)

// Message is one payload queued for every subscriber.
type Message struct {
	Kind Kind
	Data []byte
}

// TextMessage wraps pre-encoded JSON.
func TextMessage(data []byte) Message {
	return Message{Kind: Text, Data: data}
}

// BinaryMessage wraps raw bytes.
func BinaryMessage(data []byte) Message {
	return Message{Kind: Binary, Data: data}
}
