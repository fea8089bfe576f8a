package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "k")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AccountKey != "soo3" || cfg.StoreBackend != StoreMemory || cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LLMTimeout() != 60*time.Second {
		t.Fatalf("unexpected llm timeout %v", cfg.LLMTimeout())
	}
	if cfg.JWTRefreshTTL() != 720*time.Hour || cfg.JWTAccessTTL() != time.Hour {
		t.Fatalf("unexpected jwt ttls %v %v", cfg.JWTAccessTTL(), cfg.JWTRefreshTTL())
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC location, got %v %v", loc, err)
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without LLM_API_KEY")
	}
}

func TestLoadConfigRejectsUnsetAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "k")
	os.Unsetenv("LLM_API_KEY")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error with LLM_API_KEY unset")
	}
}

func TestValidateBackends(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "postgres without url", cfg: Config{StoreBackend: "postgres", LLMProvider: "openai"}, wantErr: true},
		{name: "postgres with url", cfg: Config{StoreBackend: "Postgres", DatabaseURL: "postgres://x", LLMProvider: "openai"}},
		{name: "redis without addr", cfg: Config{StoreBackend: "redis", LLMProvider: "openai"}, wantErr: true},
		{name: "mongo with uri", cfg: Config{StoreBackend: "mongo", MongoURI: "mongodb://x", LLMProvider: "gemini"}},
		{name: "unknown backend", cfg: Config{StoreBackend: "sqlite", LLMProvider: "openai"}, wantErr: true},
		{name: "unknown provider", cfg: Config{StoreBackend: "memory", LLMProvider: "other"}, wantErr: true},
		{name: "bad timezone", cfg: Config{StoreBackend: "memory", LLMProvider: "openai", Timezone: "Mars/Olympus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
