package broadcast

import "sync"

// Sent is one message captured by a Recorder
type Sent struct {
	// To is the recipient player id. Empty for broadcasts.
	To      string
	Except  string
	Type    string
	Payload any
}

// Recorder is an in-memory Notifier for tests
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SendTo records a direct message
func (r *Recorder) SendTo(playerID, msgType string, payload any) {
	r.record(Sent{To: playerID, Type: msgType, Payload: payload})
}

// Broadcast records a world-wide message
func (r *Recorder) Broadcast(msgType string, payload any) {
	r.record(Sent{Type: msgType, Payload: payload})
}

// BroadcastExcept records a world-wide message that skips one player
func (r *Recorder) BroadcastExcept(playerID, msgType string, payload any) {
	r.record(Sent{Except: playerID, Type: msgType, Payload: payload})
}

func (r *Recorder) record(s Sent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
}

// All returns every recorded message in order
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// To returns messages of a type sent directly to a player
func (r *Recorder) To(playerID, msgType string) []Sent {
	var out []Sent
	for _, s := range r.All() {
		if s.To == playerID && s.Type == msgType {
			out = append(out, s)
		}
	}
	return out
}

// Broadcasts returns world-wide messages of a type
func (r *Recorder) Broadcasts(msgType string) []Sent {
	var out []Sent
	for _, s := range r.All() {
		if s.To == "" && s.Type == msgType {
			out = append(out, s)
		}
	}
	return out
}

// Count returns how many messages of a type were recorded, any recipient
func (r *Recorder) Count(msgType string) int {
	n := 0
	for _, s := range r.All() {
		if s.Type == msgType {
			n++
		}
	}
	return n
}

// Reset discards recorded messages
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
