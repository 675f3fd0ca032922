package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/slack-go/slack"

	"fidelfix/internal/config"
	"fidelfix/internal/lexicon"
	"fidelfix/internal/scan"
	sqlitedb "fidelfix/internal/storage/sqlite"
)

func Main() {
	cfg := config.LoadConfig()

	if len(os.Args) > 1 && os.Args[1] == "add-term" {
		if err := runAddTerm(cfg, os.Args[2:]); err != nil {
			log.Fatalf("add-term: %v", err)
		}
		return
	}

	log.Printf(
		"Config loaded. Project=%s Provider=%s Model=%s MaxSuggestions=%d AutoApplyThreshold=%.2f ForceTargetScript=%v LexiconHints=%v WatchDir=%s",
		cfg.ProjectName,
		cfg.LLMProvider,
		cfg.LLMModel,
		cfg.MaxSuggestions,
		cfg.AutoApplyThreshold,
		cfg.ForceTargetScript,
		cfg.EnableLexiconHints,
		cfg.WatchDir,
	)

	db, err := sqlitedb.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	var api *slack.Client
	if cfg.SlackConfigured() {
		api = slack.New(cfg.SlackBotToken)
	}

	if cfg.ScanSchedule != "" {
		scan.StartScanScheduler(cfg, db, api)
		log.Println("Starting Fidelfix in scheduled mode...")
		select {}
	}

	log.Println("Running one-shot scan...")
	if _, err := scan.RunBatch(context.Background(), cfg, db, api); err != nil {
		log.Fatalf("Scan error: %v", err)
	}
}

// runAddTerm appends protected terms to the configured lexicon file.
func runAddTerm(cfg config.Config, terms []string) error {
	if cfg.LexiconPath == "" {
		return fmt.Errorf("lexicon_path is not configured")
	}
	if len(terms) == 0 {
		return fmt.Errorf("usage: add-term <term> [term...]")
	}
	for _, term := range terms {
		if err := lexicon.AppendTerm(cfg.LexiconPath, term); err != nil {
			return err
		}
		log.Printf("Lexicon term added: %s", term)
	}
	return nil
}
