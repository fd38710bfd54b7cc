package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Synthesis.Mode != "mock" {
		t.Fatalf("expected mock synthesis mode, got %q", cfg.Synthesis.Mode)
	}
	if cfg.Batch.Concurrency != 4 {
		t.Fatalf("expected default batch concurrency 4, got %d", cfg.Batch.Concurrency)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NARRA_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("NARRA_BUS_USERNAME", "alice")
	t.Setenv("NARRA_BUS_PASSWORD", "secret")
	t.Setenv("NARRA_SYNTHESIS_MODE", "http")
	t.Setenv("NARRA_SYNTHESIS_ENDPOINT", "http://tts.local:5002")
	t.Setenv("NARRA_SYNTHESIS_TIMEOUT_MS", "10000")
	t.Setenv("NARRA_SYNTHESIS_DEFAULT_VOICE", "Male (UK)")
	t.Setenv("NARRA_MIXER_SAMPLE_RATE", "48000")
	t.Setenv("NARRA_BATCH_MAX_CONCURRENCY", "8")
	t.Setenv("NARRA_JOB_STORE_PATH", "./tmp.db")
	t.Setenv("NARRA_JOB_STORE_RETENTION_MODE", "persistent")
	t.Setenv("NARRA_JOB_STORE_MAX_RUNS", "123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Username != "alice" || cfg.Bus.Password != "secret" {
		t.Fatalf("expected credentials override")
	}
	if cfg.Synthesis.Mode != "http" {
		t.Fatalf("expected synthesis mode override, got %q", cfg.Synthesis.Mode)
	}
	if cfg.Synthesis.Endpoint != "http://tts.local:5002" {
		t.Fatalf("expected synthesis endpoint override")
	}
	if cfg.Synthesis.TimeoutMS != 10000 {
		t.Fatalf("expected timeout 10000, got %d", cfg.Synthesis.TimeoutMS)
	}
	if cfg.Synthesis.DefaultVoice != "Male (UK)" {
		t.Fatalf("expected default voice override")
	}
	if cfg.Mixer.SampleRate != 48000 {
		t.Fatalf("expected mixer sample rate override")
	}
	if cfg.Batch.Concurrency != 8 {
		t.Fatalf("expected batch concurrency override")
	}
	if cfg.JobStore.Path != "./tmp.db" {
		t.Fatalf("expected job store path override")
	}
	if cfg.JobStore.RetentionMode != "persistent" {
		t.Fatalf("expected job store retention mode override")
	}
	if cfg.JobStore.MaxRuns != 123 {
		t.Fatalf("expected job store max runs override")
	}
}

func TestValidateRejectsBadSynthesisMode(t *testing.T) {
	t.Setenv("NARRA_SYNTHESIS_MODE", "cloud")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown synthesis mode")
	}
}

func TestValidateRequiresCommandForExecMode(t *testing.T) {
	t.Setenv("NARRA_SYNTHESIS_MODE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when exec mode has no command")
	}
}
