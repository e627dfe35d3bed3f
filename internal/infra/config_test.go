package infra

import "testing"

func clearUploadEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "PUBLIC_BASE_URL", "SYNC_MODELS", "UPLOAD_MODE", "UPLOAD_BASE_URL",
		"S3_ENDPOINT", "S3_BUCKET", "VOICE_PROVIDER", "SYNC_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearUploadEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.UploadMode != UploadModeStub {
		t.Fatalf("UploadMode = %q, want %q", cfg.UploadMode, UploadModeStub)
	}
	if cfg.SyncBaseURL != "https://api.sync.so/api/generate" {
		t.Fatalf("SyncBaseURL = %q", cfg.SyncBaseURL)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.VoiceProvider != "elevenlabs" {
		t.Fatalf("VoiceProvider = %q, want elevenlabs", cfg.VoiceProvider)
	}
	if len(cfg.SyncModels) != len(DefaultModels) || cfg.SyncModels[0] != "lipsync-2" {
		t.Fatalf("SyncModels mismatch: %#v", cfg.SyncModels)
	}
}

func TestLoadConfigInheritsPortInPublicBaseURL(t *testing.T) {
	clearUploadEnv(t)
	t.Setenv("PORT", "1919")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PublicBaseURL != "http://localhost:1919" {
		t.Fatalf("PublicBaseURL mismatch: got %q", cfg.PublicBaseURL)
	}
}

func TestLoadConfigParsesModelList(t *testing.T) {
	clearUploadEnv(t)
	t.Setenv("SYNC_MODELS", " lipsync-2 , lipsync-1.8.0,lipsync-2,, ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"lipsync-2", "lipsync-1.8.0"}
	if len(cfg.SyncModels) != len(expected) {
		t.Fatalf("SyncModels mismatch: got %#v want %#v", cfg.SyncModels, expected)
	}
	for i, model := range expected {
		if cfg.SyncModels[i] != model {
			t.Fatalf("SyncModels[%d] = %q, want %q", i, cfg.SyncModels[i], model)
		}
	}
}

func TestLoadConfigUploadModeRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "http without endpoint", env: map[string]string{"UPLOAD_MODE": "http"}, wantErr: true},
		{name: "http with endpoint", env: map[string]string{"UPLOAD_MODE": "HTTP", "UPLOAD_BASE_URL": "https://files.example.com/upload"}},
		{name: "s3 without bucket", env: map[string]string{"UPLOAD_MODE": "s3", "S3_ENDPOINT": "minio:9000"}, wantErr: true},
		{name: "s3 complete", env: map[string]string{"UPLOAD_MODE": "s3", "S3_ENDPOINT": "minio:9000", "S3_BUCKET": "media"}},
		{name: "local", env: map[string]string{"UPLOAD_MODE": "local"}},
		{name: "unknown", env: map[string]string{"UPLOAD_MODE": "ftp"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearUploadEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDisplayLocationFallsBackToLocal(t *testing.T) {
	cfg := &Config{DisplayTimezone: "Not/AZone"}
	if loc := cfg.DisplayLocation(); loc == nil {
		t.Fatalf("expected a location")
	}
	cfg.DisplayTimezone = "UTC"
	if loc := cfg.DisplayLocation(); loc.String() != "UTC" {
		t.Fatalf("DisplayLocation = %s, want UTC", loc)
	}
}
