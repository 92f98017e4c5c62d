package model

// ChatUser is one named participant of a chat room as shown to clients
type ChatUser struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ChatMessage is a single room broadcast. Time is unix milliseconds; ID is a
// per-room monotonically increasing counter.
type ChatMessage struct {
	Message string `json:"message"`
	User    string `json:"user"`
	Time    int64  `json:"time"`
	ID      int    `json:"id"`
}
