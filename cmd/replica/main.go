package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"bunker-be/internal/replica"
	"bunker-be/internal/service/dto"
	"bunker-be/internal/service/game"

	"github.com/pterm/pterm"
)

func main() {
	serverFlag := flag.String("server", "http://127.0.0.1:8080", "server base url")
	roomFlag := flag.String("room", "", "room code to join")
	nameFlag := flag.String("name", "", "player name")
	createFlag := flag.Bool("create", false, "create a new room and join as host")
	flag.Parse()

	name := strings.TrimSpace(*nameFlag)
	if name == "" {
		name, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("你的名字").Show()
		name = strings.TrimSpace(name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := replica.DialOptions{
		ServerURL: *serverFlag,
		RoomCode:  strings.ToUpper(strings.TrimSpace(*roomFlag)),
		Name:      name,
	}

	if *createFlag {
		resp, err := createRoom(ctx, *serverFlag, name)
		if err != nil {
			pterm.Error.Printfln("创建房间失败：%v", err)
			os.Exit(1)
		}

		opts.RoomCode = resp.RoomID
		opts.PeerID = resp.HostID
		opts.PeerKey = resp.HostKey
		opts.IsHost = true

		pterm.Success.Printfln("房间 %s 已创建，加入链接：%s", resp.RoomID, resp.JoinURL)
	}

	if opts.RoomCode == "" {
		pterm.Error.Println("需要 -room 或 -create")
		os.Exit(1)
	}

	spinner, _ := pterm.DefaultSpinner.Start("正在连接房间 " + opts.RoomCode)

	client, err := replica.Dial(ctx, opts)
	if err != nil {
		spinner.Fail(err.Error())
		os.Exit(1)
	}
	defer client.Close()

	spinner.Success("已连接")

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	lines := make(chan string)
	go readLines(lines)

	updates := client.Updates()

	for {
		select {
		case gs, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			render(gs)

		case line, ok := <-lines:
			if !ok || line == "quit" {
				return
			}

			if err := execute(client, line); err != nil {
				pterm.Warning.Println(err)
			}

		case err := <-runErr:
			if errors.Is(err, replica.ErrKicked) {
				pterm.Warning.Println("你已被房主移出房间")
			} else if err != nil {
				pterm.Error.Printfln("连接断开：%v", err)
			}
			return
		}
	}
}

func readLines(out chan<- string) {
	defer close(out)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- strings.TrimSpace(scanner.Text())
	}
}

func createRoom(ctx context.Context, server, hostName string) (dto.CreateRoomResponse, error) {
	body, err := json.Marshal(dto.CreateRoomRequest{HostName: hostName})
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/v1/rooms/create", bytes.NewReader(body))
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return dto.CreateRoomResponse{}, fmt.Errorf("status %d", res.StatusCode)
	}

	var resp dto.CreateRoomResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return dto.CreateRoomResponse{}, err
	}

	return resp, nil
}

var hostCommands = map[string]string{
	"open":    game.CMD_OPEN_ROOM,
	"start":   game.CMD_START_GAME,
	"round":   game.CMD_BEGIN_ROUND,
	"speech":  game.CMD_START_SPEECH,
	"next":    game.CMD_NEXT_SPEAKER,
	"discuss": game.CMD_END_DISCUSSION,
	"resolve": game.CMD_RESOLVE_VOTE,
	"exile":   game.CMD_EXILE_COMPLETE,
	"stop":    game.CMD_TIMER_STOP,
}

// playerRef 接受表格中的编号或玩家 ID
func playerRef(gs game.GameState, ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(gs.Players) {
			return "", fmt.Errorf("没有编号为 %d 的玩家", n)
		}
		return gs.Players[n-1].ID, nil
	}

	if gs.FindPlayer(ref) == nil {
		return "", fmt.Errorf("没有玩家 %s", ref)
	}

	return ref, nil
}

func execute(client *replica.Client, line string) error {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	gs := client.Mirror().Snapshot()

	switch verb {
	case "":
		return nil

	case "reveal":
		return client.SendAction(game.ACTION_REVEAL, arg)

	case "action":
		return client.SendAction(game.ACTION_USE_ACTION, "")

	case "name":
		return client.SendAction(game.ACTION_UPDATE_NAME, arg)

	case "vote":
		target, err := playerRef(gs, arg)
		if err != nil {
			return err
		}
		return client.SendAction(game.ACTION_VOTE, target)

	case "kick":
		target, err := playerRef(gs, arg)
		if err != nil {
			return err
		}
		return client.SendControl(game.ControlPayload{Command: game.CMD_KICK, PlayerID: target})

	case "timer":
		seconds, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("无效的秒数 %q", arg)
		}
		return client.SendControl(game.ControlPayload{Command: game.CMD_TIMER_START, Seconds: seconds})
	}

	if cmd, ok := hostCommands[verb]; ok {
		return client.SendControl(game.ControlPayload{Command: cmd})
	}

	return fmt.Errorf("未知指令 %q", verb)
}
