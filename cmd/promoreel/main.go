package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/engine"
	"github.com/ivlev/promoreel/internal/fetcher"
	"github.com/ivlev/promoreel/internal/narration"
	"github.com/ivlev/promoreel/internal/script"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/video"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPtr := flag.String("config", "", "YAML config file (defaults are built in)")
	scriptPtr := flag.String("script", "", "YAML scene script (default: the built-in robot emotions short)")
	outputPtr := flag.String("output", "", "Output video file")
	policyPtr := flag.String("policy", "", "On narration failure: abort, reuse-existing, continue-silent")
	skipFetchPtr := flag.Bool("skip-fetch", false, "Do not download footage, use what is in the videos directory")
	statsPtr := flag.Bool("stats", false, "Print a performance report and append it to benchmark.log")
	keepTempPtr := flag.Bool("keep-temp", false, "Keep intermediate segments")
	writeScriptPtr := flag.String("write-script", "", "Write the built-in script to this file and exit")

	flag.Parse()

	if *writeScriptPtr != "" {
		if err := script.Write(script.Default(), *writeScriptPtr); err != nil {
			log.Fatalf("[-] Could not write script: %v", err)
		}
		fmt.Printf("[+++] Script saved: %s\n", *writeScriptPtr)
		return
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	cfg.BuildVersion = version
	if *outputPtr != "" {
		cfg.Output = *outputPtr
	}
	if *scriptPtr != "" {
		cfg.ScriptPath = *scriptPtr
	}
	if *policyPtr != "" {
		cfg.Narration.Policy = *policyPtr
	}
	cfg.ShowStats = cfg.ShowStats || *statsPtr
	cfg.KeepTemp = cfg.KeepTemp || *keepTempPtr
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	policy, err := narration.ParsePolicy(cfg.Narration.Policy)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	creds, err := config.LoadCredentials(cfg.Paths.EnvFile)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	if err := creds.Require(!*skipFetchPtr, true); err != nil {
		log.Fatalf("[-] %v", err)
	}

	sc, err := script.Load(cfg.ScriptPath)
	if err != nil {
		log.Fatalf("[-] Script error: %v", err)
	}

	for _, d := range []string{cfg.Paths.Videos, cfg.Paths.Audio} {
		if err := os.MkdirAll(d, 0755); err != nil {
			log.Fatalf("[-] %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Encoder.VideoCodec == "auto" {
		cfg.Encoder.VideoCodec = system.BestH264Encoder(ctx)
		if cfg.Encoder.VideoCodec != "libx264" {
			fmt.Printf("[*] Hardware encoder detected: %s\n", cfg.Encoder.VideoCodec)
		}
	}

	var stock engine.Fetcher
	if !*skipFetchPtr {
		client := fetcher.NewClient(cfg.Stock.BaseURL, creds.StockAPIKey, cfg.Stock.PerPage, cfg.Stock.Orientation, cfg.Stock.Timeout)
		stock = fetcher.New(client, cfg.Paths.Videos, cfg.Stock.Quality)
	}

	tts := narration.NewElevenLabs(cfg.Narration.BaseURL, creds.VoiceAPIKey, cfg.Narration.ModelID, cfg.Narration.Timeout)
	narrator := &narration.Narrator{
		Gen:             narration.NewGenerator(tts, narration.FFProbe, cfg.Narration.MaxAttempts, cfg.Narration.RetryDelay),
		Policy:          policy,
		DefaultDuration: cfg.Narration.DefaultDuration,
	}

	encoder := video.NewFFmpegEncoder(video.SettingsFrom(cfg))

	project := engine.NewVideoProject(cfg, sc, stock, narrator, encoder)
	if err := project.Run(ctx); err != nil {
		log.Fatalf("[-] Run failed: %v", err)
	}
}
