package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServerPort != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.ServerPort)
	}
	if cfg.PageSizeDefault != 20 || cfg.PageSizeMax != 100 {
		t.Errorf("unexpected page size bounds: %d/%d", cfg.PageSizeDefault, cfg.PageSizeMax)
	}
	if cfg.SecretKey == "" {
		t.Error("expected development fallback secret")
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadSecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SECRET_KEY in production")
	}
}

func TestLoadPageSizeBounds(t *testing.T) {
	t.Setenv("PAGE_SIZE_DEFAULT", "500")
	t.Setenv("PAGE_SIZE_MAX", "100")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when default exceeds max")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://ops.example.com, https://hr.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServerPort != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.ServerPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %s", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://hr.example.com" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}
