package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mockup-machine/abuse"
	"mockup-machine/api"
	"mockup-machine/event"
	"mockup-machine/genai"
	"mockup-machine/preset"
)

type config struct {
	Port         string
	OfficialURL  string
	CommunityURL string
	FetchTimeout time.Duration
	RecentFile   string
	LogMode      string
}

func loadConfig() config {
	return config{
		Port:         getenv("PORT", "8080"),
		OfficialURL:  getenv("OFFICIAL_PRESETS_URL", "https://presets.mockupmachine.app/api/official"),
		CommunityURL: getenv("COMMUNITY_PRESETS_URL", "https://presets.mockupmachine.app/api/community"),
		FetchTimeout: time.Duration(getenvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		RecentFile:   getenv("RECENT_FILE", "/data/recent.json"),
		LogMode:      getenv("LOG_MODE", "dev"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "prod" || mode == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	cfg := loadConfig()

	log, err := newLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	recents, err := preset.NewRecents(cfg.RecentFile)
	if err != nil {
		log.Fatal("failed to load recently-used presets", zap.Error(err))
	}

	official := preset.NewOfficialClient(cfg.OfficialURL, cfg.FetchTimeout, log)
	community := preset.NewCommunityClient(cfg.CommunityURL, cfg.FetchTimeout, log)
	catalog := preset.NewCatalog(official, community, log)

	hub := event.NewHub()
	catalog.OnChange = func(kind string) {
		hub.Publish(event.Event{Kind: kind})
	}

	router := api.RegisterRoutes(api.Deps{
		Catalog: catalog,
		Recents: recents,
		Scorer:  abuse.NewScorer(),
		Keys:    genai.NewResolver(),
		Hub:     hub,
		Log:     log,
	})

	addr := ":" + cfg.Port
	log.Info("mockup-machine preset service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
