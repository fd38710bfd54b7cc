package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Synthesis   SynthesisConfig `yaml:"synthesis"`
	Mixer       MixerConfig     `yaml:"mixer"`
	Batch       BatchConfig     `yaml:"batch"`
	JobStore    JobStoreConfig  `yaml:"job_store"`
	Voices      []VoiceEntry    `yaml:"voices"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// SynthesisConfig selects and tunes the speech provider backend.
type SynthesisConfig struct {
	Mode         string `yaml:"mode"` // mock, http, exec
	Endpoint     string `yaml:"endpoint"`
	Command      string `yaml:"command"`
	DefaultVoice string `yaml:"default_voice"`
	DefaultStyle string `yaml:"default_style"`
	TimeoutMS    int    `yaml:"timeout_ms"`
}

// MixerConfig describes the common PCM format both mix inputs are decoded to
// and the external transcoder commands used for decode/encode.
type MixerConfig struct {
	SampleRate    int    `yaml:"sample_rate"`
	Channels      int    `yaml:"channels"`
	DecodeCommand string `yaml:"decode_command"`
	EncodeCommand string `yaml:"encode_command"`
}

type BatchConfig struct {
	Concurrency int `yaml:"max_concurrency"`
}

type JobStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRuns       int    `yaml:"max_runs"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// VoiceEntry extends the built-in voice registry from configuration.
type VoiceEntry struct {
	Name   string `yaml:"name"`
	ID     string `yaml:"id"`
	Locale string `yaml:"locale"`
	Gender string `yaml:"gender"`
}

func Default() Config {
	return Config{
		RuntimeName: "narra-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Synthesis: SynthesisConfig{
			Mode:         "mock",
			Endpoint:     "http://localhost:5002",
			DefaultVoice: "Female (US)",
			DefaultStyle: "normal",
			TimeoutMS:    45000,
		},
		Mixer: MixerConfig{
			SampleRate:    44100,
			Channels:      2,
			DecodeCommand: "ffmpeg -hide_banner -loglevel error -i pipe:0 -f s16le -acodec pcm_s16le -ar 44100 -ac 2 pipe:1",
			EncodeCommand: "ffmpeg -hide_banner -loglevel error -f wav -i pipe:0 -f mp3 -b:a 192k pipe:1",
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		JobStore: JobStoreConfig{
			Path:          "./data/narra-jobs.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxRuns:       10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "NARRA_RUNTIME_NAME")
	overrideString(&cfg.Environment, "NARRA_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "NARRA_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "NARRA_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "NARRA_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "NARRA_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "NARRA_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "NARRA_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "NARRA_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "NARRA_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "NARRA_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "NARRA_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "NARRA_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "NARRA_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "NARRA_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "NARRA_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Synthesis.Mode, "NARRA_SYNTHESIS_MODE")
	overrideString(&cfg.Synthesis.Endpoint, "NARRA_SYNTHESIS_ENDPOINT")
	overrideString(&cfg.Synthesis.Command, "NARRA_SYNTHESIS_COMMAND")
	overrideString(&cfg.Synthesis.DefaultVoice, "NARRA_SYNTHESIS_DEFAULT_VOICE")
	overrideString(&cfg.Synthesis.DefaultStyle, "NARRA_SYNTHESIS_DEFAULT_STYLE")
	overrideInt(&cfg.Synthesis.TimeoutMS, "NARRA_SYNTHESIS_TIMEOUT_MS")
	overrideInt(&cfg.Mixer.SampleRate, "NARRA_MIXER_SAMPLE_RATE")
	overrideInt(&cfg.Mixer.Channels, "NARRA_MIXER_CHANNELS")
	overrideString(&cfg.Mixer.DecodeCommand, "NARRA_MIXER_DECODE_COMMAND")
	overrideString(&cfg.Mixer.EncodeCommand, "NARRA_MIXER_ENCODE_COMMAND")
	overrideInt(&cfg.Batch.Concurrency, "NARRA_BATCH_MAX_CONCURRENCY")
	overrideString(&cfg.JobStore.Path, "NARRA_JOB_STORE_PATH")
	overrideString(&cfg.JobStore.RetentionMode, "NARRA_JOB_STORE_RETENTION_MODE")
	overrideInt(&cfg.JobStore.RetentionDays, "NARRA_JOB_STORE_RETENTION_DAYS")
	overrideInt(&cfg.JobStore.MaxRuns, "NARRA_JOB_STORE_MAX_RUNS")
	overrideBool(&cfg.JobStore.VacuumOnStart, "NARRA_JOB_STORE_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.Synthesis.Mode {
	case "mock", "http", "exec":
	default:
		return errors.New("synthesis.mode must be one of mock|http|exec")
	}
	if cfg.Synthesis.Mode == "http" && cfg.Synthesis.Endpoint == "" {
		return errors.New("synthesis.endpoint must be set when mode=http")
	}
	if cfg.Synthesis.Mode == "exec" && cfg.Synthesis.Command == "" {
		return errors.New("synthesis.command must be set when mode=exec")
	}
	if cfg.Synthesis.TimeoutMS <= 0 {
		return errors.New("synthesis.timeout_ms must be positive")
	}
	if cfg.Mixer.SampleRate <= 0 {
		return errors.New("mixer.sample_rate must be positive")
	}
	if cfg.Mixer.Channels <= 0 {
		return errors.New("mixer.channels must be positive")
	}
	if cfg.Mixer.DecodeCommand == "" || cfg.Mixer.EncodeCommand == "" {
		return errors.New("mixer.decode_command and mixer.encode_command must not be empty")
	}
	if cfg.Batch.Concurrency <= 0 {
		return errors.New("batch.max_concurrency must be >= 1")
	}
	if cfg.JobStore.Path == "" {
		return errors.New("job_store.path must not be empty")
	}
	switch cfg.JobStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("job_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.JobStore.RetentionDays < 0 {
		return errors.New("job_store.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	for _, v := range cfg.Voices {
		if v.Name == "" || v.ID == "" {
			return errors.New("voices entries must carry both name and id")
		}
	}
	return nil
}
