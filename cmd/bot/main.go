package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/config"
	"github.com/MiMics0/medical-farm-bot/internal/notifier"
	"github.com/MiMics0/medical-farm-bot/internal/recorder"
	"github.com/MiMics0/medical-farm-bot/internal/roster"
	"github.com/MiMics0/medical-farm-bot/internal/scheduler"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "farm-duty-bot",
		Short:         "Daily farm duty rotation with weighted fair selection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "path to config file")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the bot: scheduler triggers plus Telegram polling",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), cfgPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "Print the current leaderboard and fine balances from the state file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return printReport(cfgPath)
		},
	})
	return root
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func runBot(ctx context.Context, cfgPath string) error {
	log.Println("[INFO] farm duty bot starting...")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	loc := cfg.Location()

	rm, err := roster.NewManager(cfg.Duty.StateFile, roster.Options{
		FineAmount:  cfg.Duty.FineAmount,
		ConfirmMode: roster.ConfirmMode(cfg.Duty.ConfirmMode),
		Location:    loc,
	})
	if err != nil {
		return fmt.Errorf("init roster manager: %w", err)
	}

	tn := notifier.NewTelegramNotifier(
		cfg.Telegram.BotToken,
		cfg.Telegram.AnnounceChatID,
		cfg.Telegram.AdminChatID,
		cfg.Proxy,
	)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	sched := scheduler.NewScheduler(ctx, rm, tn, rec, scheduler.Options{
		Location:        loc,
		EligibleIDs:     cfg.Duty.EligibleIDs,
		ProofWait:       time.Duration(cfg.Duty.ProofWaitSeconds) * time.Second,
		LeaderboardSize: cfg.Duty.LeaderboardSize,
	})
	if err := sched.RegisterAll(
		cfg.Schedule.CloseCron,
		cfg.Schedule.SettleCron,
		cfg.Schedule.ReopenCron,
		cfg.Schedule.RolloverCron,
	); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleUpdate)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, opening today's window now")
		go sched.RunReopenNow()
	}

	log.Println("[INFO] farm duty bot is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

func printReport(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	state, err := roster.LoadState(cfg.Duty.StateFile)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	if state.Current != nil {
		fmt.Printf("Cycle %s (window %s)\n", state.Current.Date, state.Current.Window)
		if state.Current.Assignment != nil {
			fmt.Printf("Assigned: %v\n", state.Current.Assignment)
		}
	} else {
		fmt.Println("No current cycle.")
	}

	fmt.Println("\nCompletions:")
	for _, id := range state.Seen {
		fmt.Printf("  %-20s %d\n", id, state.Completions[id])
	}

	fmt.Println("\nFines:")
	ids := make([]string, 0, len(state.Fines))
	for id := range state.Fines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %-20s %d IC\n", id, state.Fines[id])
	}
	return nil
}
