package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case CreatedLobby:
		fmt.Printf("Lobby: %s\n", v.LobbyID)
	case PlayerAuth:
		fmt.Printf("Username: %s\n", v.Username)
		fmt.Printf("Session token: %s\n", v.SessionToken)
	case LobbyInfo:
		fmt.Printf("Private: %t\n", v.IsPrivate)
	case RoomList:
		if len(v.Rooms) == 0 {
			fmt.Println("No rooms")
			return
		}
		fmt.Printf("Rooms: %s\n", strings.Join(v.Rooms, ", "))
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CreatedLobby response type (matches the socket wire shape)
type CreatedLobby struct {
	LobbyID string `json:"lobbyId"`
}

// PlayerAuth response type
type PlayerAuth struct {
	Username     string `json:"username"`
	SessionToken string `json:"sessionToken"`
}

// LobbyInfo response type
type LobbyInfo struct {
	IsPrivate bool `json:"isPrivate"`
}

// RoomList wraps the chat room names for printing
type RoomList struct {
	Rooms []string `json:"rooms"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}
