// Command mayagent is a terminal harness for the orchestration engine.
// It wires the full stack (config, provider, tools, cache, history)
// against a simulated scene host, so the resolution layers and tool
// round-trips can be exercised without a running Maya.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/NieAnim/MayaAgent/agent"
	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/provider"
	"github.com/NieAnim/MayaAgent/storage"
	"github.com/NieAnim/MayaAgent/tool"
)

const Version = "v0.01.00"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mayagent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.InitDebugLog(cfg.DataDir())

	sessions, err := storage.NewSessionStore(cfg.DataDir())
	if err != nil {
		return err
	}

	// The history log and sqlite index are not safe to share between
	// processes, so only one harness runs per data directory.
	locked, pid, err := sessions.CheckInstanceLock()
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("another mayagent instance is running (PID %d)", pid)
	}
	if err := sessions.LockInstance(); err != nil {
		return err
	}
	defer func() {
		if err := sessions.UnlockInstance(); err != nil && config.Debug {
			config.DebugLog.Printf("[Main] unlock failed: %v", err)
		}
	}()

	history, err := storage.NewHistoryStore(cfg.DataDir())
	if err != nil {
		return err
	}
	index, err := storage.NewHistoryIndex(cfg.DataDir())
	if err != nil {
		return err
	}
	defer index.Close()
	history.AttachIndex(index)

	pc, err := cfg.Provider()
	if err != nil {
		return err
	}
	llm, err := provider.NewProvider(*pc)
	if err != nil {
		return err
	}

	registry := tool.NewRegistry()
	if failures := tool.RegisterAll(registry); len(failures) > 0 {
		for name, regErr := range failures {
			fmt.Fprintf(os.Stderr, "tool %s not registered: %v\n", name, regErr)
		}
	}

	sim := host.NewSimHost()
	confirmer := &host.TerminalConfirmer{In: os.Stdin, Out: os.Stdout}
	executor := tool.NewExecutor(registry, sim, confirmer, sim)

	engine, err := agent.NewEngine(cfg, llm, registry, executor, sim)
	if err != nil {
		return err
	}
	engine.SetHistory(history)

	// Resume the previous conversation when one is on disk.
	if lastID, err := sessions.LoadCurrentSessionID(); err == nil {
		if last, err := sessions.Load(lastID); err == nil {
			engine.Resume(last)
			fmt.Printf("已恢复会话: %s\n", storage.SessionPreview(last))
		}
	}

	fmt.Printf("mayagent %s, provider %s (%s)\n", Version, pc.ID, llm.GetDisplayName())
	fmt.Println("输入消息开始对话。命令: /new /sessions /search <关键词> /stats /quit")

	return repl(engine, sessions, history, index)
}

func repl(engine *agent.Engine, sessions *storage.SessionStore, history *storage.HistoryStore, index *storage.HistoryIndex) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := command(line, engine, sessions, history, index); quit {
				return saveSession(engine, sessions)
			}
			continue
		}

		if err := sendAndRender(engine, line); err != nil {
			fmt.Printf("错误: %v\n", err)
		}
		if err := saveSession(engine, sessions); err != nil && config.Debug {
			config.DebugLog.Printf("[Main] session save failed: %v", err)
		}
	}
}

func command(line string, engine *agent.Engine, sessions *storage.SessionStore, history *storage.HistoryStore, index *storage.HistoryIndex) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/new":
		engine.Reset()
		fmt.Println("已开始新会话。")
	case "/sessions":
		metas, err := sessions.List()
		if err != nil {
			fmt.Printf("错误: %v\n", err)
			return false
		}
		for _, m := range metas {
			fmt.Printf("  %s  %-30s  %d msgs  %d tokens\n",
				m.UpdatedAt.Format("01-02 15:04"), m.Preview, m.MessageCount, m.TotalTokens)
		}
	case "/search":
		keyword := strings.TrimSpace(arg)
		recs := history.Search(keyword)
		if len(recs) == 0 {
			// The in-memory log only holds recent records; the sqlite
			// index covers everything ever written, rotations included.
			indexed, err := index.Search(keyword, 20)
			if err != nil {
				fmt.Printf("错误: %v\n", err)
				return false
			}
			recs = indexed
		}
		for _, rec := range recs {
			fmt.Printf("  [%s] Q: %s\n", rec.Timestamp.Format("01-02 15:04"), rec.UserInput)
		}
	case "/stats":
		s := history.Stats()
		fmt.Printf("  记录: %d  会话: %d  工具轮: %d  问答轮: %d\n",
			s.TotalRecords, s.TotalSessions, s.ToolRecords, s.QARecords)
	default:
		fmt.Printf("未知命令: %s\n", cmd)
	}
	return false
}

// sendAndRender streams one request to the terminal. Ctrl-C cancels the
// in-flight request without quitting the harness.
func sendAndRender(engine *agent.Engine, text string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	updates, err := engine.Send(ctx, text)
	if err != nil {
		return err
	}

	streaming := false
	for update := range updates {
		switch update.Kind {
		case agent.UpdateReasoningDelta:
			// Reasoning is debug-only noise on a terminal.
		case agent.UpdateTextDelta:
			fmt.Print(update.Text)
			streaming = true
		case agent.UpdateToolCall:
			if streaming {
				fmt.Println()
				streaming = false
			}
			fmt.Printf("⚙ %s ...\n", update.Call.Name)
		case agent.UpdateToolResult:
			fmt.Printf("  ↳ %s\n", firstLine(update.Result.Content()))
		case agent.UpdateNotice:
			if streaming {
				fmt.Println()
				streaming = false
			}
			fmt.Println(update.Text)
		case agent.UpdateUsage:
			if config.Debug {
				config.DebugLog.Printf("[Main] usage: %+v", update.Usage)
			}
		case agent.UpdateFinal:
			if streaming {
				fmt.Println()
			} else if update.Message != nil {
				fmt.Println(update.Message.Content)
			}
			if update.Resolution != agent.ResolutionModel {
				fmt.Printf("(resolved via %s)\n", update.Resolution)
			}
		case agent.UpdateFailed:
			if streaming {
				fmt.Println()
			}
			return update.Err
		case agent.UpdateCancelled:
			if streaming {
				fmt.Println()
			}
			fmt.Println("已取消。")
		}
	}
	return nil
}

func saveSession(engine *agent.Engine, sessions *storage.SessionStore) error {
	session := engine.Session()
	if len(session.Messages) == 0 {
		return nil
	}
	if err := sessions.Save(session); err != nil {
		return err
	}
	return sessions.SaveCurrentSessionID(session.ID)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
