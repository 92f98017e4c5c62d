package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const requestTimeout = 10 * time.Second

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Lobby management commands",
	}

	cmd.AddCommand(newLobbyCreateCmd())
	cmd.AddCommand(newLobbyGetCmd())
	cmd.AddCommand(newLobbyJoinCmd())

	return cmd
}

func newLobbyCreateCmd() *cobra.Command {
	var maxPlayers int
	var private bool
	var password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new lobby",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			req := map[string]any{
				"maxPlayers": maxPlayers,
				"isPrivate":  private,
			}
			if password != "" {
				req["password"] = password
			}

			var result CreatedLobby
			if err := conn.Request(ctx, "lobby:create", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPlayers, "max-players", 4, "Maximum number of players")
	cmd.Flags().BoolVar(&private, "private", false, "Require a password to join")
	cmd.Flags().StringVar(&password, "password", "", "Lobby password (required with --private)")

	return cmd
}

func newLobbyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <lobby-id>",
		Short: "Get lobby details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			var result LobbyInfo
			req := map[string]any{"lobbyId": args[0]}
			if err := conn.Request(ctx, "lobby:get", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLobbyJoinCmd() *cobra.Command {
	var username string
	var password string
	var watch bool

	cmd := &cobra.Command{
		Use:   "join <lobby-id>",
		Short: "Join a lobby",
		Long: `Join a lobby and print the issued session credentials.

With --watch the connection stays open and lobby events (playerChanged,
hostChanged, closed) are streamed until Ctrl+C; Ctrl+C leaves the lobby
cleanly before disconnecting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lobbyID := args[0]
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			req := map[string]any{
				"lobbyId":  lobbyID,
				"username": username,
			}
			if password != "" {
				req["password"] = password
			}

			var result PlayerAuth
			if err := conn.Request(ctx, "lobby:join", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)

			if !watch {
				return nil
			}
			return watchLobby(conn, lobbyID, out)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Display name (defaults to a server-assigned name)")
	cmd.Flags().StringVar(&password, "password", "", "Lobby password")
	cmd.Flags().BoolVar(&watch, "watch", false, "Stay connected and stream lobby events")

	return cmd
}

func watchLobby(conn *Conn, lobbyID string, out *Output) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case frame, ok := <-conn.Events():
			if !ok {
				return fmt.Errorf("connection lost")
			}
			printFrame(out, frame)
		case <-sigCh:
			leaveCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			err := conn.Request(leaveCtx, "lobby/"+lobbyID+":leave", nil, nil)
			cancel()
			if err != nil {
				out.PrintError(err)
			}
			return nil
		}
	}
}

func printFrame(out *Output, frame Frame) {
	if cfg.Output == "json" {
		out.Print(frame)
		return
	}
	data := string(frame.Data)
	if data == "" {
		data = "{}"
	}
	fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), frame.Event, data)
}
