package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat room commands",
	}

	cmd.AddCommand(newChatRoomsCmd())
	cmd.AddCommand(newChatCreateCmd())
	cmd.AddCommand(newChatJoinCmd())

	return cmd
}

func newChatRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List the created chat rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			var rooms []string
			if err := conn.Request(ctx, "chatRoom:getRooms", nil, &rooms); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(RoomList{Rooms: rooms})
			return nil
		},
	}
}

func newChatCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a chat room",
		Long: `Create a temporary chat room.

The room closes once its last member leaves, or after a timeout if nobody
ever joins it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			req := map[string]any{"name": args[0]}
			if err := conn.Request(ctx, "chatRoom:create", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Created room %s", args[0]))
			return nil
		},
	}
}

func newChatJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join [room]",
		Short: "Join a chat room and talk",
		Long: `Join a chat room (default: general) and enter an interactive session.

Incoming messages are printed as they arrive; lines typed on stdin are sent
to the room. End the session with EOF (Ctrl+D) or /quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room := "general"
			if len(args) > 0 {
				room = args[0]
			}

			dialCtx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			conn, err := client.Dial(dialCtx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			req := map[string]any{"name": name}
			if err := conn.Request(dialCtx, "chat/"+room+":join", req, nil); err != nil {
				return err
			}

			return chatSession(cmd.Context(), conn, room)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (a taken or empty name gets replaced)")

	return cmd
}

// chatSession multiplexes incoming room events with lines typed on stdin.
func chatSession(ctx context.Context, conn *Conn, room string) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case frame, ok := <-conn.Events():
			if !ok {
				return fmt.Errorf("connection lost")
			}
			printChatFrame(frame)
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				leaveCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				err := conn.Request(leaveCtx, "chat/"+room+":leave", nil, nil)
				cancel()
				return err
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			err := conn.Request(sendCtx, "chat/"+room+":message", map[string]any{"message": line}, nil)
			cancel()
			if err != nil {
				NewOutput(cfg.Output).PrintError(err)
			}
		}
	}
}

func printChatFrame(frame Frame) {
	switch frame.Event {
	case "message":
		var msg struct {
			Message string `json:"message"`
			User    string `json:"user"`
		}
		if err := json.Unmarshal(frame.Data, &msg); err == nil {
			fmt.Printf("<%s> %s\n", msg.User, msg.Message)
			return
		}
	case "name":
		var assigned string
		if err := json.Unmarshal(frame.Data, &assigned); err == nil {
			fmt.Printf("* you are %s\n", assigned)
			return
		}
	case "users":
		var users []struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(frame.Data, &users); err == nil {
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Name)
			}
			fmt.Printf("* users: %s\n", strings.Join(names, ", "))
			return
		}
	}
	fmt.Printf("* %s %s\n", frame.Event, string(frame.Data))
}
