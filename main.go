package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/allejako/snake-sub000/game"
	"github.com/allejako/snake-sub000/logging"
	"github.com/allejako/snake-sub000/online"
	"github.com/allejako/snake-sub000/server"
	"github.com/allejako/snake-sub000/transport"
)

// frameInterval 主循环轮询间隔（事件投递 + 按 TickMs 推进）
const frameInterval = 5 * time.Millisecond

// maxLocalTicks 离线对局的上限，避免两条自动驾驶的蛇永远不死
const maxLocalTicks = 20000

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// 入口：relay 启动中继服务；host/join 以自动驾驶玩家参加联机对局；local 为离线对局
func main() {
	// 可选的 .env；不存在时忽略
	_ = godotenv.Load()

	var (
		mode       string
		addr       string
		logPath    string
		logLevel   string
		logConsole bool
		relayURL   string
		name       string
		codec      string
		session    string
		minPlayers int
		players    int
	)
	flag.StringVar(&mode, "mode", "relay", "relay | host | join | local")
	flag.StringVar(&addr, "addr", envOr("SNAKE_ADDR", ":8080"), "relay listen address, e.g. :8080")
	flag.StringVar(&logPath, "log", envOr("SNAKE_LOG", "snake.log"), "log file path")
	flag.StringVar(&logLevel, "log-level", envOr("SNAKE_LOG_LEVEL", "debug"), "debug | info | warn | error")
	flag.BoolVar(&logConsole, "log-console", os.Getenv("SNAKE_LOG_CONSOLE") == "1", "mirror logs to stderr")
	flag.StringVar(&relayURL, "relay", envOr("SNAKE_RELAY", "ws://localhost:8080/ws"), "relay websocket URL")
	flag.StringVar(&name, "name", envOr("SNAKE_NAME", "player"), "display name")
	flag.StringVar(&codec, "codec", envOr("SNAKE_CODEC", "json"), "wire codec: json | msgpack")
	flag.StringVar(&session, "session", "", "session code to join")
	flag.IntVar(&minPlayers, "min", 2, "players needed before the host starts")
	flag.IntVar(&players, "players", 2, "local mode: number of snakes")
	flag.Parse()

	// zap 写入滚动日志文件，按需镜像到控制台
	if err := logging.InitLogger(logging.Options{File: logPath, Level: logLevel, Console: logConsole}); err != nil {
		panic(err)
	}
	defer logging.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case "relay":
		err = runRelay(ctx, addr)
	case "host", "join":
		cfg := online.DefaultConfig()
		cfg.Codec = codec
		err = runOnline(ctx, mode == "host", relayURL, session, name, minPlayers, cfg)
	case "local":
		err = runLocal(players)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		logging.Log.Errorf("%s: %v", mode, err)
		fmt.Fprintln(os.Stderr, err)
		logging.SyncLogger()
		os.Exit(1)
	}
}

func runRelay(ctx context.Context, addr string) error {
	rm := server.GetRoomManager()
	srv := &http.Server{Addr: addr, Handler: rm.Mux()}

	errCh := make(chan error, 1)
	go func() {
		logging.Log.Infof("relay listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅退出（Ctrl+C）
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logging.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runOnline 无界面玩家：自动准备、自动驾驶，打完一局后退出
func runOnline(ctx context.Context, host bool, url, code, name string, minPlayers int, cfg online.Config) error {
	s, err := online.NewSession(transport.NewWSTransport(url), cfg, name)
	if err != nil {
		return err
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if host {
		err = s.Host(dialCtx)
	} else {
		err = s.Join(dialCtx, code)
	}
	if err != nil {
		return err
	}
	defer s.Leave()
	if host {
		fmt.Printf("session %s\n", s.SessionID())
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	readied := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			now := t.UnixMilli()
			if s.Frame(now) {
				if p, ok := s.Game.Local(); ok && p.InPlay() {
					s.SetDirection(game.Autopilot(s.Game, s.Game.LocalIndex))
				}
			}
			for _, c := range s.DrainCues() {
				logging.Log.Debugf("cue %s slot=%d", c, c.Slot)
			}

			switch s.State {
			case online.Lobby:
				// 只准备一次：客户端的 ready 以房主广播为准
				if _, ok := s.Game.Local(); ok && !readied {
					if err := s.ToggleReady(); err != nil {
						return err
					}
					readied = true
				}
				if s.CanStart() && s.Game.TotalJoined >= minPlayers {
					if err := s.StartGame(now); err != nil {
						return err
					}
				}
			case online.GameOver:
				printResults(s.Game, s.Winner)
				return nil
			case online.Disconnected:
				return errors.New(s.ErrorMessage)
			}
		}
	}
}

// runLocal 离线对局：所有蛇都由本进程模拟，直到只剩一条
func runLocal(players int) error {
	if players < 1 || players > game.MaxPlayers {
		return fmt.Errorf("players must be 1..%d", game.MaxPlayers)
	}
	g := game.NewGame(game.DefaultConfig(), nil)
	for i := 0; i < players; i++ {
		g.Join(i, transport.NewClientID(), fmt.Sprintf("bot-%d", i+1))
	}
	g.StartMatch()

	ticks := 0
	for {
		for i := 0; i < players; i++ {
			if p, _ := g.Player(i); p.InPlay() {
				p.Input.Push(game.Autopilot(g, i), p.Snake.Dir)
			}
		}
		animating := g.Tick()
		g.UpdateCombos(int64(ticks * g.TickMs))
		g.DrainEvents()
		g.DrainCues()
		ticks++
		if ticks >= maxLocalTicks || (g.IsOver() && !animating && (g.MatchPlayers() > 1 || g.ActivePlayers == 0)) {
			break
		}
	}
	winner := g.SelectWinner()
	g.AwardWin(winner)
	logging.Log.Infof("local match over after %d ticks", ticks)
	printResults(g, winner)
	return nil
}

func printResults(g *game.Game, winner int) {
	for i := 0; i < game.MaxPlayers; i++ {
		p, _ := g.Player(i)
		if !p.Joined {
			continue
		}
		mark := " "
		if i == winner {
			mark = "*"
		}
		fmt.Printf("%s %-12s score=%-5d fruits=%-3d best combo=%-3d lives=%d\n",
			mark, p.Name, p.Score, p.FruitsEaten, p.ComboBest, p.Lives)
	}
}
