// Command roomctl logs in to a running campus chat server and prints its room
// hierarchy.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"github.com/Tyrowin/campuschat/internal/chat"
	"github.com/Tyrowin/campuschat/internal/dispatch"
	"github.com/Tyrowin/campuschat/internal/session"
)

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wireResponse struct {
	Event   string          `json:"event"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// Exit codes.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roomctl: %v\n", err)
	}
	os.Exit(code)
}

// run owns the connection so it is closed before exit.
func run(args []string, out io.Writer) (int, error) {
	fs := flag.NewFlagSet("roomctl", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server base URL")
	origin := fs.String("origin", "http://localhost:8080", "Origin header sent on the WebSocket handshake")
	username := fs.String("user", "roomctl", "Username to log in with")
	avatar := fs.String("avatar", "0", "Avatar id to log in with")
	room := fs.String("room", "", "Building id to enter and inspect")
	logLevel := fs.String("log-level", "WARN", "Log level")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}

	logger := logs.GetLoggerFromString(*logLevel)

	cookie, err := login(*addr, *username, *avatar)
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}
	logger.Debug("Logged in", "user", *username, "addr", *addr)

	conn, err := dial(*addr, *origin, cookie)
	if err != nil {
		return exitRuntime, fmt.Errorf("connection failed: %w", err)
	}
	defer func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		if err := conn.Close(); err != nil {
			logger.Debug("Error closing connection", "error", err)
		}
	}()

	var buildings []chat.Listing
	if err := call(conn, dispatch.CommandRoomList, nil, &buildings); err != nil {
		return exitRuntime, fmt.Errorf("listing rooms failed: %w", err)
	}
	printListings(out, "Buildings", buildings)

	if *room == "" {
		return exitOK, nil
	}

	if err := call(conn, dispatch.CommandJoinRoom, dispatch.JoinRoomRequest{RoomID: *room}, nil); err != nil {
		return exitRuntime, fmt.Errorf("joining %s failed: %w", *room, err)
	}
	logger.Debug("Joined room", "roomId", *room)

	var subrooms []chat.Listing
	if err := call(conn, dispatch.CommandRoomList, nil, &subrooms); err != nil {
		return exitRuntime, fmt.Errorf("listing subrooms failed: %w", err)
	}

	var details chat.Details
	if err := call(conn, dispatch.CommandRoomDetails, nil, &details); err != nil {
		return exitRuntime, fmt.Errorf("room details failed: %w", err)
	}
	printListings(out, "Rooms in "+details.Name, subrooms)
	printMembers(out, details)
	return exitOK, nil
}

func login(addr, username, avatar string) (*http.Cookie, error) {
	body, err := json.Marshal(session.LoginRequest{Username: username, AvatarID: avatar})
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(strings.TrimRight(addr, "/")+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c, nil
		}
	}
	return nil, errors.New("server set no session cookie")
}

func dial(addr, origin string, cookie *http.Cookie) (*websocket.Conn, error) {
	u, err := url.Parse(strings.TrimRight(addr, "/") + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	header.Set("Origin", origin)
	header.Set("Cookie", cookie.Name+"="+cookie.Value)

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// call sends one command and decodes the data of its response into out.
// Broadcast frames that arrive in between are skipped.
func call(conn *websocket.Conn, command string, data any, out any) error {
	req := map[string]any{"command": command}
	if data != nil {
		req["data"] = data
	}
	if err := conn.WriteJSON(req); err != nil {
		return err
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		if ev.Event != chat.EventResponse {
			continue
		}

		var resp wireResponse
		if err := json.Unmarshal(ev.Data, &resp); err != nil {
			return err
		}
		if resp.Event == dispatch.EventConnection && !resp.Success {
			return fmt.Errorf("%s: %s", resp.Code, resp.Message)
		}
		if resp.Event != command {
			continue
		}
		if !resp.Success {
			return fmt.Errorf("%s: %s", resp.Code, resp.Message)
		}
		if out == nil || len(resp.Data) == 0 {
			return nil
		}
		return json.Unmarshal(resp.Data, out)
	}
}

func printListings(out io.Writer, title string, rooms []chat.Listing) {
	fmt.Fprintln(out, color.New(color.BgBlack, color.FgGreen).Render(" "+title+" "))

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Name", "Type", "Users"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, room := range rooms {
		table.Append([]string{room.ID, room.Name, string(room.Kind), strconv.Itoa(room.MemberCount)})
	}
	table.Render()
}

func printMembers(out io.Writer, details chat.Details) {
	fmt.Fprintln(out, color.New(color.BgBlack, color.FgCyan).Render(" Connected to "+details.Name+" "))

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"User ID", "Name", "Avatar"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, who := range details.Members {
		table.Append([]string{who.ID, who.Name, who.AvatarID})
	}
	table.Render()
}
