package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APIFOOTBALL_KEY", "test-api-key")
	t.Setenv("OPENAI_API_KEY", "test-openai-key")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_ProviderKeysRequired(t *testing.T) {
	t.Run("api-football key", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APIFOOTBALL_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when APIFOOTBALL_KEY is empty")
		}
	})

	t.Run("openai key", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("OPENAI_API_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when OPENAI_API_KEY is empty")
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_SERVICE_NAME", "footchat-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "footchat-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Run("default wildcard", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_APIFootballConfigParsing(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.APIFootballBaseURL != "https://v3.football.api-sports.io" {
			t.Fatalf("unexpected default base url: %q", cfg.APIFootballBaseURL)
		}
		if cfg.APIFootballTimeout != 8*time.Second {
			t.Fatalf("unexpected default timeout: %s", cfg.APIFootballTimeout)
		}
		if !cfg.APIFootballCircuitEnabled {
			t.Fatalf("expected circuit breaker enabled by default")
		}
	})

	t.Run("invalid retries", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APIFOOTBALL_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative APIFOOTBALL_MAX_RETRIES")
		}
	})
}

func TestLoad_WarmupConfigParsing(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		setRequiredEnv(t)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.WarmupEnabled {
			t.Fatalf("expected WarmupEnabled=false by default")
		}
	})

	t.Run("enabled requires names", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WARMUP_ENABLED", "true")
		t.Setenv("WARMUP_TEAMS", "")
		t.Setenv("WARMUP_LEAGUES", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when WARMUP_ENABLED=true without names")
		}
	})

	t.Run("enabled with names", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WARMUP_ENABLED", "true")
		t.Setenv("WARMUP_TEAMS", "Benfica, Porto ,Sporting CP")
		t.Setenv("WARMUP_LEAGUES", "Premier League")
		t.Setenv("WARMUP_WORKERS", "3")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.WarmupTeams) != 3 {
			t.Fatalf("unexpected warmup teams: %+v", cfg.WarmupTeams)
		}
		if cfg.WarmupTeams[1] != "Porto" {
			t.Fatalf("expected trimmed team name, got %q", cfg.WarmupTeams[1])
		}
		if len(cfg.WarmupLeagues) != 1 {
			t.Fatalf("unexpected warmup leagues: %+v", cfg.WarmupLeagues)
		}
		if cfg.WarmupWorkers != 3 {
			t.Fatalf("unexpected warmup workers: %d", cfg.WarmupWorkers)
		}
	})
}

func TestLoad_QuestionLengthParsing(t *testing.T) {
	setRequiredEnv(t)

	t.Run("default", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.MaxQuestionLength != 250 {
			t.Fatalf("unexpected default max question length: %d", cfg.MaxQuestionLength)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("MAX_QUESTION_LENGTH", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for MAX_QUESTION_LENGTH=0")
		}
	})
}
