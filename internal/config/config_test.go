package config

import (
	"os"
	"testing"
	"time"

	"talentgrid/backend/internal/region"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if got := cfg.SignupTTL(); got != 24*time.Hour {
		t.Errorf("SignupTTL = %v, want 24h", got)
	}
	if got := cfg.TFATTL(); got != 10*time.Minute {
		t.Errorf("TFATTL = %v, want 10m", got)
	}
	if got := cfg.SessionTokenTTL(); got != 24*time.Hour {
		t.Errorf("SessionTokenTTL = %v, want 24h", got)
	}
	if got := cfg.RememberTTL(); got != 720*time.Hour {
		t.Errorf("RememberTTL = %v, want 720h", got)
	}
	if got := cfg.ResetTTL(); got != time.Hour {
		t.Errorf("ResetTTL = %v, want 1h", got)
	}
	if got := cfg.SweepEvery(); got != time.Hour {
		t.Errorf("SweepEvery = %v, want 1h", got)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("TFA_TOKEN_TTL", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if got := cfg.TFATTL(); got != 15*time.Second {
		t.Errorf("TFATTL = %v, want 15s", got)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for BCRYPT_COST=99")
	}
}

func TestLoad_ProductionRequiresSMTP(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when APP_ENV=production without SMTP_HOST")
	}

	os.Setenv("SMTP_HOST", "smtp.example.com")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with SMTP_HOST: %v", err)
	}
}

func TestRegionURLs_ParsesAllRegions(t *testing.T) {
	cfg := &Config{RegionDatabaseURLs: "IND1=postgres://ind;USA1=postgres://usa;DEU1=postgres://deu"}
	urls, err := cfg.RegionURLs()
	if err != nil {
		t.Fatalf("RegionURLs: %v", err)
	}
	if urls[region.IND1] != "postgres://ind" {
		t.Errorf("IND1 = %q", urls[region.IND1])
	}
	if urls[region.USA1] != "postgres://usa" {
		t.Errorf("USA1 = %q", urls[region.USA1])
	}
	if urls[region.DEU1] != "postgres://deu" {
		t.Errorf("DEU1 = %q", urls[region.DEU1])
	}
}

func TestRegionURLs_MissingRegion(t *testing.T) {
	cfg := &Config{RegionDatabaseURLs: "IND1=postgres://ind"}
	if _, err := cfg.RegionURLs(); err == nil {
		t.Fatal("expected error for missing regions")
	}
}

func TestRegionURLs_Malformed(t *testing.T) {
	for _, raw := range []string{"IND1", "IND1=", "XXX9=postgres://x;IND1=a;USA1=b;DEU1=c"} {
		cfg := &Config{RegionDatabaseURLs: raw}
		if _, err := cfg.RegionURLs(); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestTTL_FallbackOnInvalid(t *testing.T) {
	cfg := &Config{TFATokenTTL: "not-a-duration", PasswordResetTTL: "-5m"}
	if got := cfg.TFATTL(); got != 10*time.Minute {
		t.Errorf("TFATTL = %v, want fallback 10m", got)
	}
	if got := cfg.ResetTTL(); got != time.Hour {
		t.Errorf("ResetTTL = %v, want fallback 1h", got)
	}
}
