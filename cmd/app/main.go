package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"persona-chat-client/internal/config"
	"persona-chat-client/internal/domain/model"
	"persona-chat-client/internal/domain/ports/repository"
	aiAdapter "persona-chat-client/internal/infra/adapters/ai"
	"persona-chat-client/internal/infra/logging"
	"persona-chat-client/internal/infra/metrics"
	"persona-chat-client/internal/infra/notify"
	red "persona-chat-client/internal/infra/redis"
	"persona-chat-client/internal/infra/store"
	"persona-chat-client/internal/infra/web"
	"persona-chat-client/internal/tokens"
	"persona-chat-client/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted keys)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	if cfg.API.Key == "" {
		logger.Warn().Msg("api.key not set; submissions will be rejected")
	} else {
		logger.Info().Str("key", logging.Redact(cfg.API.Key, cfg.Runtime.Dev)).Msg("api key loaded")
	}

	// ---- Session store with one active chat ----
	st := store.NewMemoryStore(cfg.Settings(), cfg.API.Key)
	chat := model.NewChat()
	st.Update(func(s *repository.State) {
		s.Chats = append(s.Chats, chat)
		s.ActiveChatID = chat.ID
	})

	// ---- Optional redis chat archive ----
	var archive repository.ChatArchive
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		archive = red.NewChatArchive(redisClient, cfg.Redis.TTL)
	}

	// ---- Completion client and orchestrator ----
	transport := aiAdapter.NewStreamTransport(cfg.API.BaseURL)
	client := aiAdapter.NewClient(transport, tokens.NewTiktokenCounter(), logger)
	notifier := notify.NewLogNotifier(logger)
	turnUC := usecase.NewTurnUseCase(st, client, notifier, archive, logger)

	if cfg.API.Key != "" {
		go func() {
			if !client.ValidateKey(ctx, cfg.API.Key) {
				logger.Warn().Msg("api key failed validation")
			}
		}()
	}

	// ---- Admin/observability server ----
	adminSrv := web.NewServer(st, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminSrv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server stopped")
		}
	}()

	// ---- Graceful shutdown on signal ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info().Msg("shutdown requested")
		turnUC.AbortCurrentRequest()
		_ = server.Close()
		cancel()
		os.Exit(0)
	}()

	repl(ctx, st, turnUC, client)
}

// repl runs the line-oriented chat surface: each line becomes one turn.
// /abort cancels the in-flight request, /models lists the credential's
// models, /speak renders the latest reply to reply.mp3, /quit exits.
func repl(ctx context.Context, st *store.MemoryStore, turnUC usecase.TurnUseCase, client *aiAdapter.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/abort":
			turnUC.AbortCurrentRequest()
			continue
		case "/models":
			snap := st.Snapshot()
			ids := client.ListModels(ctx, snap.APIKey)
			if len(ids) == 0 {
				ids = model.KnownModels()
			}
			fmt.Println(strings.Join(ids, "\n"))
			continue
		case "/speak":
			snap := st.Snapshot()
			audio, err := client.Synthesize(ctx, snap.TTSText, snap.Settings.Voice, snap.Settings.SpeechModel, snap.APIKey)
			if err != nil {
				fmt.Println("speech:", err)
				continue
			}
			if err := os.WriteFile("reply.mp3", audio, 0o644); err != nil {
				fmt.Println("speech:", err)
				continue
			}
			fmt.Println("wrote reply.mp3")
			continue
		}

		turnUC.Submit(ctx, model.NewMessage(model.RoleUser, line))

		snap := st.Snapshot()
		if chat := snap.ActiveChat(); chat != nil {
			if last := chat.LastMessage(); last != nil && last.Role == model.RoleAssistant {
				fmt.Println(last.Content)
			}
			if chat.Title != "" {
				fmt.Printf("[%s]\n", chat.Title)
			}
		}
	}
}
