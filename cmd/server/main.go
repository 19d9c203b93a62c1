package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/mklimuk/job-pilot/pkg/ai"
	"github.com/mklimuk/job-pilot/pkg/api"
	"github.com/mklimuk/job-pilot/pkg/app"
	"github.com/mklimuk/job-pilot/pkg/config"
	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/integration/chat"
	"github.com/mklimuk/job-pilot/pkg/integration/discord"
	"github.com/mklimuk/job-pilot/pkg/integration/drive"
	"github.com/mklimuk/job-pilot/pkg/integration/sheets"
	"github.com/mklimuk/job-pilot/pkg/integration/telegram"
	"github.com/mklimuk/job-pilot/pkg/logging"
	"github.com/mklimuk/job-pilot/pkg/posting"
	"github.com/mklimuk/job-pilot/pkg/render"
	"github.com/mklimuk/job-pilot/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	// Initialize DB
	database, err := db.NewDB(cfg.HistoryDB)
	if err != nil {
		log.Error("failed to open history database", "path", cfg.HistoryDB, "error", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := database.InitSchema(); err != nil {
		log.Error("failed to init schema", "error", err)
		os.Exit(1)
	}
	repo := db.NewRepository(database)

	store := app.OpenStore(cfg, log)
	if created, err := store.Init(); err != nil {
		log.Error("failed to initialise tracker", "path", store.Path(), "error", err)
		os.Exit(1)
	} else if created {
		log.Info("created empty tracker", "path", store.Path())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checkerOpts := []posting.Option{
		posting.WithLogger(log.With("component", "posting")),
		posting.WithHistory(repo),
	}
	if cfg.Checker.Timeout > 0 {
		checkerOpts = append(checkerOpts, posting.WithTimeout(cfg.Checker.Timeout))
	}
	if cfg.Checker.UserAgent != "" {
		checkerOpts = append(checkerOpts, posting.WithUserAgent(cfg.Checker.UserAgent))
	}

	h := &api.Handler{
		Store:       store,
		Locator:     documents.NewLocator(cfg.CandidateName, cfg.ResumesDir, cfg.CoverLettersDir, cfg.WhyCompanyDir),
		Templates:   documents.NewTemplateEngine(cfg.TemplatesDir),
		Resumes:     render.NewConverter(render.LayoutResume, repo, log.With("component", "render")),
		Letters:     render.NewConverter(render.LayoutLetter, repo, log.With("component", "render")),
		Checker:     posting.NewChecker(checkerOpts...),
		Runs:        repo,
		BaseResume:  cfg.BaseResume,
		HorizonDays: cfg.FollowUpHorizonDays,
		Log:         log.With("component", "api"),
	}

	// AI drafts (optional)
	gen, err := ai.New(ctx, cfg.AI.Provider, cfg.AI.Model, cfg.AIKey())
	switch {
	case errors.Is(err, ai.ErrNoKey):
		log.Info("AI drafts disabled", "reason", err)
	case err != nil:
		log.Warn("failed to create AI client", "provider", cfg.AI.Provider, "error", err)
	default:
		defer gen.Close()
		h.Drafter = ai.NewDrafter(gen, cfg.AI.Provider, cfg.CandidateName, repo)
	}

	// Google Sheets export (optional)
	if g := cfg.Google; g.SpreadsheetID != "" && g.CredentialsFile != "" {
		client, err := sheets.NewClient(ctx, g.CredentialsFile)
		if err == nil {
			h.Sheets, err = sheets.NewExporter(client, g.SpreadsheetID, g.SheetTab)
		}
		if err != nil {
			log.Warn("google sheets export disabled", "error", err)
		}
	}

	// Google Drive backup (optional)
	var backup *drive.Backup
	if g := cfg.Google; g.DriveFolderID != "" && g.CredentialsFile != "" && g.BackupInterval > 0 {
		svc, err := drive.NewService(ctx, g.CredentialsFile, g.DriveFolderID)
		if err != nil {
			log.Warn("drive backup disabled", "error", err)
		} else {
			backup = drive.NewBackup(svc, repo, cfg.Root, cfg.BackupPaths(), g.BackupInterval, log.With("component", "drive"))
			go backup.Start(ctx)
			log.Info("drive backup started", "interval", g.BackupInterval)
		}
	}

	commands := chat.NewCommands(store, cfg.FollowUpHorizonDays)

	// Telegram bot (optional)
	var tgBot *telegram.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = telegram.NewBot(cfg.TelegramToken, commands, cfg.TelegramChatID, log.With("component", "telegram"))
		if err == nil {
			err = tgBot.Start()
		}
		if err != nil {
			log.Warn("failed to start Telegram bot", "error", err)
			tgBot = nil
		} else {
			log.Info("Telegram bot started")
		}
	}

	// Discord bot (optional)
	var dcBot *discord.Bot
	if cfg.DiscordToken != "" {
		dcBot, err = discord.NewBot(cfg.DiscordToken, commands, cfg.DiscordChannel, log.With("component", "discord"))
		if err == nil {
			err = dcBot.Start()
		}
		if err != nil {
			log.Warn("failed to start Discord bot", "error", err)
			dcBot = nil
		} else {
			log.Info("Discord bot started")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting server", "addr", srv.Addr, "tracker", store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	shutdown.Graceful([]os.Signal{os.Interrupt, syscall.SIGTERM}, srv, 10*time.Second, log)

	cancel()
	if backup != nil {
		backup.Stop()
	}
	if tgBot != nil {
		tgBot.Stop()
	}
	if dcBot != nil {
		if err := dcBot.Stop(); err != nil {
			log.Warn("failed to close Discord session", "error", err)
		}
	}
}
