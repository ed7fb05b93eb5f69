package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/aquasense/backend/internal/advisor"
	"github.com/aquasense/backend/internal/analysis"
	"github.com/aquasense/backend/internal/api"
	"github.com/aquasense/backend/internal/assistant"
	"github.com/aquasense/backend/internal/disease"
	"github.com/aquasense/backend/internal/ingest"
	"github.com/aquasense/backend/internal/quality"
	"github.com/aquasense/backend/internal/store"
)

type cliFlags struct {
	DB    string `help:"Path to the SQLite database." default:"data/aquasense.db" env:"AQUASENSE_DB"`
	Port  string `help:"HTTP server port." default:"8080" env:"PORT"`
	Model string `help:"Path to the water-quality model artifact." default:"data/aqua_sense_model.json" env:"AQUASENSE_MODEL"`

	DiseaseServiceURL string `help:"Base URL of the disease inference service. Empty disables image analysis." env:"DISEASE_SERVICE_URL"`
	DiseaseLabelMap   string `help:"Optional JSON label map for the disease model." env:"DISEASE_LABEL_MAP"`

	LabFTPHost     string `help:"Laboratory FTP drop host:port. Empty disables lab imports." env:"LAB_FTP_HOST"`
	LabFTPUser     string `help:"Laboratory FTP user." env:"LAB_FTP_USER"`
	LabFTPPassword string `help:"Laboratory FTP password." env:"LAB_FTP_PASSWORD"`
	LabFTPDir      string `help:"Laboratory FTP export directory." default:"/exports" env:"LAB_FTP_DIR"`

	SessionTTL time.Duration `help:"Idle lifetime of assistant chat sessions." default:"1h" env:"SESSION_TTL"`

	NoPoll bool `help:"Disable background jobs (server only, for local dev)."`
	Once   bool `help:"Run the background jobs once and exit."`
}

func main() {
	var flags cliFlags
	kong.Parse(&flags,
		kong.Name("aquasense"),
		kong.Description("Water-quality monitoring and advisory backend for fish farms."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", flags.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	// The model artifact is read exactly once; a failed load leaves the
	// classifier degraded and the advisory path rule-based only.
	classifier := quality.NewClassifier(flags.Model)

	var narrator *advisor.Narrator
	if n, err := advisor.NewNarrator(); err != nil {
		log.Printf("narration disabled: %v", err)
	} else {
		narrator = n
	}

	diseases := disease.NewClassifier(flags.DiseaseServiceURL, flags.DiseaseLabelMap)
	svc := analysis.New(st, classifier, diseases, narrator)

	sessions := assistant.NewSessionStore(50, flags.SessionTTL)
	var asst *assistant.Assistant
	if a, err := assistant.New(sessions); err != nil {
		log.Printf("assistant disabled: %v", err)
	} else {
		asst = a
	}

	var lab *ingest.LabClient
	if flags.LabFTPHost != "" {
		lab = ingest.NewLabClient(flags.LabFTPHost, flags.LabFTPUser, flags.LabFTPPassword, flags.LabFTPDir)
	}
	scheduler := ingest.NewScheduler(st, classifier, lab)

	if flags.Once {
		log.Println("running background jobs once")
		scheduler.RunOnce()
		log.Println("done")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !flags.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("background jobs disabled (--no-poll)")
	}
	go sessions.Run(ctx)

	server := api.NewServer(st, svc, classifier, asst, flags.Port)
	log.Printf("starting server on :%s", flags.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
