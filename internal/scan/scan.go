package scan

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"

	"fidelfix/internal/apply"
	"fidelfix/internal/batch"
	"fidelfix/internal/config"
	"fidelfix/internal/domain"
	"fidelfix/internal/integrations/llm"
	"fidelfix/internal/lexicon"
	"fidelfix/internal/report"
	sqlitedb "fidelfix/internal/storage/sqlite"
	"fidelfix/internal/suggest"
)

// ImportResult tracks separate counters for each import outcome.
type ImportResult struct {
	TotalFiles int
	Imported   int
	Refreshed  int
	Errors     []string
}

// ImportWatchDir loads every .txt file from the watch dir into the document
// store. The file name (without extension) is the document id.
func ImportWatchDir(cfg config.Config, db *sql.DB) (ImportResult, error) {
	var result ImportResult
	if strings.TrimSpace(cfg.WatchDir) == "" {
		return result, fmt.Errorf("watch_dir is not configured")
	}

	entries, err := os.ReadDir(cfg.WatchDir)
	if err != nil {
		return result, fmt.Errorf("reading watch dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		result.TotalFiles++
		path := filepath.Join(cfg.WatchDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("scan import read error path=%s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".txt")
		doc := domain.Document{ID: id, Text: string(data)}

		exists, err := sqlitedb.DocumentExists(db, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		if err := sqlitedb.UpsertDocument(db, doc, path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		if exists {
			result.Refreshed++
		} else {
			result.Imported++
		}
	}

	if len(result.Errors) > 0 && result.Imported == 0 && result.Refreshed == 0 {
		return result, fmt.Errorf("all imports failed: %s", strings.Join(result.Errors, "; "))
	}
	return result, nil
}

// NewCoordinator builds the batch coordinator the way the config describes:
// oracle if a credential is present, lexicon file if configured, sqlite
// ledger.
func NewCoordinator(cfg config.Config, db *sql.DB) *batch.Coordinator {
	var oracle llm.Oracle
	if cfg.OracleConfigured() {
		oracle = llm.NewClient(cfg.LLMProvider, cfg.AnthropicAPIKey, cfg.OpenAIAPIKey)
	}

	lex := lexicon.Default()
	if cfg.LexiconPath != "" {
		loaded, err := lexicon.Load(cfg.LexiconPath)
		if err != nil {
			log.Printf("scan lexicon load error path=%s: %v", cfg.LexiconPath, err)
		} else {
			lex = loaded
		}
	}

	var ledger apply.Ledger = apply.NewMemoryLedger()
	if db != nil {
		ledger = sqlitedb.NewLedger(db)
	}
	return batch.NewCoordinator(suggest.NewGenerator(oracle, lex), ledger)
}

func batchSettings(cfg config.Config) batch.Settings {
	return batch.Settings{
		Model:              cfg.LLMModel,
		FallbackModels:     cfg.LLMFallbackModels,
		MaxSuggestions:     cfg.MaxSuggestions,
		AutoApplyThreshold: cfg.AutoApplyThreshold,
		ForceTargetScript:  cfg.ForceTargetScript,
		EnableLexiconHints: cfg.EnableLexiconHints,
		Progress: func(percent int, phase string) {
			log.Printf("scan batch progress=%d%% phase=%s", percent, phase)
		},
	}
}

// RunBatch imports the watch dir (when configured), runs the full batch over
// the stored documents, records analyses, writes the markdown report and
// posts the Slack summary.
func RunBatch(ctx context.Context, cfg config.Config, db *sql.DB, api *slack.Client) (domain.BatchProcessingResult, error) {
	if cfg.WatchDir != "" {
		imported, err := ImportWatchDir(cfg, db)
		if err != nil {
			log.Printf("scan import error: %v", err)
		} else {
			log.Printf("scan import files=%d imported=%d refreshed=%d", imported.TotalFiles, imported.Imported, imported.Refreshed)
		}
	}

	docs, err := sqlitedb.ListDocuments(db)
	if err != nil {
		return domain.BatchProcessingResult{}, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return domain.BatchProcessingResult{}, fmt.Errorf("no documents to process")
	}

	coordinator := NewCoordinator(cfg, db)
	result, err := coordinator.Run(ctx, docs, batchSettings(cfg))
	if err != nil {
		return result, err
	}

	// Previous scores are read before this run's analyses are recorded, so
	// the trend compares against the prior scan.
	previous := make(map[string]float64, len(result.Documents))
	for _, a := range result.Documents {
		if score, found, err := sqlitedb.LatestQualityScore(db, a.DocumentID); err == nil && found {
			previous[a.DocumentID] = score
		}
	}

	for _, a := range result.Documents {
		if err := sqlitedb.InsertAnalysis(db, a); err != nil {
			log.Printf("scan record analysis doc=%s error: %v", a.DocumentID, err)
		}
	}

	now := time.Now()
	content := report.RenderBatchMarkdown(result, cfg.ProjectName, now) +
		report.RenderQualityTrend(result, previous)
	path, err := report.WriteReportFile(content, cfg.ReportOutputDir, now, cfg.ProjectName)
	if err != nil {
		log.Printf("scan report write error: %v", err)
	} else {
		log.Printf("scan report written path=%s", path)
	}

	summary := FormatBatchSummary(result)
	log.Printf("scan complete: %s", summary)
	if api != nil && cfg.SlackConfigured() {
		_, _, postErr := api.PostMessage(cfg.ReportChannelID, slack.MsgOptionText(
			fmt.Sprintf("OCR scan complete: %s", summary), false))
		if postErr != nil {
			log.Printf("scan post error: %v", postErr)
		}
	}
	return result, nil
}

// FormatBatchSummary returns the one-line human summary of a batch run.
func FormatBatchSummary(result domain.BatchProcessingResult) string {
	failed := 0
	poor := 0
	suggestions := 0
	for _, a := range result.Documents {
		if a.Failed {
			failed++
		} else if a.QualityBucket() == "poor" {
			poor++
		}
	}
	for _, s := range result.Suggestions {
		suggestions += len(s)
	}
	msg := fmt.Sprintf("%d documents analyzed, %d suggestions, %d auto-applied",
		len(result.Documents), suggestions, result.AutoApplied)
	if poor > 0 {
		msg += fmt.Sprintf(", %d poor quality", poor)
	}
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	return msg
}

// StartScanScheduler runs RunBatch on a 5-field cron schedule (minute hour
// day-of-month month day-of-week). Examples: "0 6 * * *" (daily 6am),
// "0 6 * * 1-5" (weekdays 6am).
func StartScanScheduler(cfg config.Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.ScanSchedule)
	if schedule == "" {
		log.Println("Scheduled scan disabled (scan_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid scan_schedule '%s': %v, scheduled scan disabled", schedule, err)
		return
	}
	log.Printf("Scan scheduled (cron: %s) watch_dir=%s", schedule, cfg.WatchDir)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next scan at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			if _, err := RunBatch(context.Background(), cfg, db, api); err != nil {
				log.Printf("Scheduled scan error: %v", err)
			}
		}
	}()
}
