package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pitabwire/frame"
	frameconfig "github.com/pitabwire/frame/config"

	ksconfig "github.com/kathascribe/kathascribe/config"
	"github.com/kathascribe/kathascribe/internal/lexicon"
	"github.com/kathascribe/kathascribe/internal/pipeline"
	"github.com/kathascribe/kathascribe/internal/scripture"
	"github.com/kathascribe/kathascribe/pkg/events"
	"github.com/kathascribe/kathascribe/pkg/transcript"

	// Register ASR backends via init().
	_ "github.com/kathascribe/kathascribe/internal/asr/backends/indic"
	_ "github.com/kathascribe/kathascribe/internal/asr/backends/whisperapi"
)

func main() {
	outDir := flag.String("out", "./outputs", "directory for transcript JSON files")
	domainMode := flag.String("domain", "", "override domain mode (sggs, dasam, generic)")
	scheme := flag.String("scheme", "", "override romanization scheme")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: kathascribe [flags] <audio-file>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx := context.Background()

	cfg, err := frameconfig.LoadWithOIDC[ksconfig.PipelineConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("kathascribe"),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	index, err := openScripture(ctx, &cfg)
	if err != nil {
		// Missing scripture index is fatal at startup.
		log.Fatalf("%v", err)
	}

	lexLoader := lexicon.NewLoader(cfg.LexiconDir)
	if err := lexLoader.LoadAll(); err != nil {
		log.Printf("warning: loading lexicons: %v", err)
	} else if cfg.LexiconDir != "" {
		if err := lexLoader.Watch(ctx); err != nil {
			log.Printf("warning: watching lexicons: %v", err)
		}
	}

	pub := events.NewPublisher(nil, "kathascribe", "")

	orch, err := pipeline.New(ctx, &cfg, index, lexLoader, pool, pub, nil)
	if err != nil {
		log.Fatalf("starting pipeline: %v", err)
	}
	defer orch.Close()
	orch.SetClassifier(orch.QuickPassClassifier())

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating output dir: %v", err)
	}

	opts := pipeline.Options{DomainMode: *domainMode, Scheme: *scheme}
	failed := 0
	for _, path := range flag.Args() {
		result, err := orch.TranscribeFile(ctx, path, opts)
		if err != nil {
			log.Printf("transcribe %s: %v", path, err)
			failed++
			continue
		}
		outPath := filepath.Join(*outDir, transcriptName(path))
		if err := transcript.SaveJSON(outPath, result); err != nil {
			log.Printf("save %s: %v", outPath, err)
			failed++
			continue
		}
		fmt.Printf("%s: %d segments, %d quotes replaced -> %s\n",
			path, len(result.Segments), result.Metrics.QuotesReplaced, outPath)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func openScripture(ctx context.Context, cfg *ksconfig.PipelineConfig) (*scripture.Index, error) {
	configs := []scripture.StoreConfig{
		{Path: cfg.ScriptureDBPath, Source: scripture.SourceSGGS},
	}
	if cfg.DasamDBPath != "" {
		if _, err := os.Stat(cfg.DasamDBPath); err == nil {
			configs = append(configs, scripture.StoreConfig{
				Path: cfg.DasamDBPath, Source: scripture.SourceDasam,
			})
		} else {
			// A missing secondary corpus degrades to SGGS-only matching.
			log.Printf("warning: dasam corpus %s unavailable, matching against SGGS only", cfg.DasamDBPath)
		}
	}
	return scripture.Open(ctx, configs...)
}

func transcriptName(audioPath string) string {
	base := filepath.Base(audioPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".json"
}
