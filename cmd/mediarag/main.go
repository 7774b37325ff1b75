package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"mediarag/pkg/chunker"
	"mediarag/pkg/config"
	"mediarag/pkg/ingest"
	"mediarag/pkg/llm"
	"mediarag/pkg/query"
	"mediarag/pkg/store"
	"mediarag/pkg/youtube"
	"mediarag/server"
)

type flags struct {
	configPath string
	port       int
	pdfGlob    string
	noServe    bool
}

func main() {
	// A missing .env file is fine; explicit environment wins either way.
	_ = godotenv.Load()

	f := parseFlags()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.IntVar(&f.port, "port", 0, "HTTP port (overrides config)")
	flag.StringVar(&f.pdfGlob, "pdf", "", "Glob of local PDF files to ingest before serving")
	flag.BoolVar(&f.noServe, "no-serve", false, "Exit after ingestion instead of starting the server")
	flag.Parse()

	return f
}

func run(f flags) error {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s", e.Error())
		}
		return fmt.Errorf("invalid configuration")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	llmClient, err := llm.NewClient(llm.ClientConfig{
		Provider:       cfg.LLM.Provider,
		APIKey:         cfg.LLM.APIKey,
		Endpoint:       cfg.LLM.Endpoint,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		APIVersion:     cfg.LLM.APIVersion,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize completion client: %v", err)
	}

	vectorStore, err := store.New(store.Config{
		Provider: cfg.Store.Provider,
		Qdrant: store.QdrantConfig{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			VectorSize: cfg.Store.Qdrant.VectorSize,
		},
		PgVector: store.PgVectorConfig{
			ConnString: cfg.Store.Database.URL,
			TableName:  cfg.Store.Database.TableName,
			VectorSize: cfg.Store.Qdrant.VectorSize,
		},
	}, llmClient)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorStore.Close()

	splitter := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
	})
	pipeline := ingest.NewPipeline(splitter, vectorStore)

	transcripts := youtube.NewTranscriptClient(youtube.TranscriptConfig{
		Timeout:   time.Duration(cfg.YouTube.TimeoutSeconds) * time.Second,
		RateLimit: cfg.YouTube.RateLimit,
		Languages: cfg.YouTube.Languages,
	})

	engine := query.NewEngine(vectorStore, llmClient, splitter, pipeline, transcripts)

	if f.pdfGlob != "" {
		if err := ingestLocalPDFs(pipeline, f.pdfGlob); err != nil {
			return err
		}
		if f.noServe {
			return nil
		}
	}

	srv, err := server.NewServer(engine, pipeline, llmClient, transcripts, logger, &server.Config{
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func ingestLocalPDFs(pipeline *ingest.Pipeline, glob string) error {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("invalid pdf glob: %v", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match %s", glob)
	}

	color.Blue("\nIngesting %d PDF files\n", len(paths))
	bar := getProgressBar(len(paths), "Ingesting PDFs...")

	totalChunks := 0
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %v", path, err)
		}

		info, err := file.Stat()
		if err != nil {
			file.Close()
			return fmt.Errorf("failed to stat %s: %v", path, err)
		}

		summary, err := pipeline.IngestPDF(context.Background(), file, info.Size(), filepath.Base(path))
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %v", path, err)
		}

		totalChunks += summary.ChunkCount
		bar.Add(1)
	}
	bar.Finish()

	color.Green("\n✓ Stored %d chunks from %d files\n", totalChunks, len(paths))
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
