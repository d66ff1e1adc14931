package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Video     VideoConfig     `yaml:"video"`
	Detector  DetectorConfig  `yaml:"detector"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Sinks     SinksConfig     `yaml:"sinks"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type VideoConfig struct {
	Input      string `yaml:"input"`
	Output     string `yaml:"output"`
	Codec      string `yaml:"codec"`
	ShowWindow bool   `yaml:"show_window"`
	WindowName string `yaml:"window_name"`
}

type DetectorConfig struct {
	History        int     `yaml:"history"`
	VarThreshold   float64 `yaml:"var_threshold"`
	DetectShadows  bool    `yaml:"detect_shadows"`
	BlurKernel     int     `yaml:"blur_kernel"`
	BlurSigma      float64 `yaml:"blur_sigma"`
	OpenKernel     int     `yaml:"open_kernel"`
	CloseKernel    int     `yaml:"close_kernel"`
	MinArea        float64 `yaml:"min_area"`
	MaxArea        float64 `yaml:"max_area"`
	MaxAspectRatio float64 `yaml:"max_aspect_ratio"`
}

type TrackerConfig struct {
	MinMotionDistance float64 `yaml:"min_motion_distance"`
	MinFramesEel      int     `yaml:"min_frames_eel"`
	MaxFramesMissed   int     `yaml:"max_frames_missed"`
	// Gate is frame width divided by this value
	GateDivisor float64 `yaml:"gate_divisor"`
}

// GateDistance returns association gate in pixels for given frame width
func (t TrackerConfig) GateDistance(frameWidth int) float64 {
	return float64(frameWidth) / t.GateDivisor
}

type SinksConfig struct {
	CSVPath     string `yaml:"csv_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

type ArtifactsConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether artifacts upload has been configured
func (a ArtifactsConfig) Enabled() bool {
	return a.Endpoint != "" && a.Bucket != ""
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type LoggingConfig struct {
	// Log every N-th frame at Info level
	ProgressEvery int `yaml:"progress_every"`
}

// Default returns configuration with every default applied
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			Output:     "Vid_tracking.mp4",
			Codec:      "mp4v",
			ShowWindow: true,
			WindowName: "Tracking anguilles",
		},
		Detector: DetectorConfig{
			History:        500,
			VarThreshold:   16.0,
			BlurKernel:     7,
			BlurSigma:      1.5,
			OpenKernel:     5,
			CloseKernel:    11,
			MinArea:        1500.0,
			MaxArea:        5000.0,
			MaxAspectRatio: 0.33,
		},
		Tracker: TrackerConfig{
			MinMotionDistance: 2.0,
			MinFramesEel:      5,
			MaxFramesMissed:   50,
			GateDivisor:       4.0,
		},
		Sinks: SinksConfig{
			CSVPath:     "Vid_tracking.csv",
			NATSSubject: "eeltrack.detections",
		},
		Logging: LoggingConfig{
			ProgressEvery: 100,
		},
	}
}

// Load reads config from YAML file and applies environment variable overrides.
// Empty path means defaults plus environment.
// Values missing from the file keep their defaults, explicit zeros are kept as is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values which would make the pipeline meaningless
func (cfg *Config) Validate() error {
	if cfg.Detector.History <= 0 {
		return errors.Errorf("detector history must be positive, got %d", cfg.Detector.History)
	}
	if cfg.Detector.MinArea < 0 {
		return errors.Errorf("detector min_area must not be negative, got %v", cfg.Detector.MinArea)
	}
	if cfg.Detector.MinArea > cfg.Detector.MaxArea {
		return errors.Errorf("detector min_area %v is greater than max_area %v", cfg.Detector.MinArea, cfg.Detector.MaxArea)
	}
	if cfg.Detector.MaxAspectRatio <= 0 || cfg.Detector.MaxAspectRatio > 1 {
		return errors.Errorf("detector max_aspect_ratio must be in (0, 1], got %v", cfg.Detector.MaxAspectRatio)
	}
	if cfg.Detector.BlurKernel <= 0 || cfg.Detector.BlurKernel%2 == 0 {
		return errors.Errorf("detector blur_kernel must be odd and positive, got %d", cfg.Detector.BlurKernel)
	}
	if cfg.Detector.OpenKernel <= 0 || cfg.Detector.CloseKernel <= 0 {
		return errors.Errorf("detector morphology kernels must be positive, got %d and %d", cfg.Detector.OpenKernel, cfg.Detector.CloseKernel)
	}
	if cfg.Tracker.MinFramesEel < 0 || cfg.Tracker.MaxFramesMissed < 0 {
		return errors.New("tracker frame thresholds must not be negative")
	}
	if cfg.Tracker.MinMotionDistance < 0 {
		return errors.Errorf("tracker min_motion_distance must not be negative, got %v", cfg.Tracker.MinMotionDistance)
	}
	if cfg.Tracker.GateDivisor <= 0 {
		return errors.Errorf("tracker gate_divisor must be positive, got %v", cfg.Tracker.GateDivisor)
	}
	if len(cfg.Video.Codec) != 4 {
		return errors.Errorf("video codec must be a FourCC, got %q", cfg.Video.Codec)
	}
	return nil
}

// setDefaults restores strings which can not be empty
func setDefaults(cfg *Config) {
	if cfg.Video.Output == "" {
		cfg.Video.Output = "Vid_tracking.mp4"
	}
	if cfg.Video.Codec == "" {
		cfg.Video.Codec = "mp4v"
	}
	if cfg.Video.WindowName == "" {
		cfg.Video.WindowName = "Tracking anguilles"
	}
	if cfg.Sinks.NATSSubject == "" {
		cfg.Sinks.NATSSubject = "eeltrack.detections"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EELTRACK_INPUT"); v != "" {
		cfg.Video.Input = v
	}
	if v := os.Getenv("EELTRACK_OUTPUT"); v != "" {
		cfg.Video.Output = v
	}
	if v := os.Getenv("EELTRACK_SHOW_WINDOW"); v != "" {
		if show, err := strconv.ParseBool(v); err == nil {
			cfg.Video.ShowWindow = show
		}
	}
	if v := os.Getenv("EELTRACK_CSV_PATH"); v != "" {
		cfg.Sinks.CSVPath = v
	}
	if v := os.Getenv("EELTRACK_SQLITE_PATH"); v != "" {
		cfg.Sinks.SQLitePath = v
	}
	if v := os.Getenv("EELTRACK_POSTGRES_DSN"); v != "" {
		cfg.Sinks.PostgresDSN = v
	}
	if v := os.Getenv("EELTRACK_NATS_URL"); v != "" {
		cfg.Sinks.NATSURL = v
	}
	if v := os.Getenv("EELTRACK_MINIO_ENDPOINT"); v != "" {
		cfg.Artifacts.Endpoint = v
	}
	if v := os.Getenv("EELTRACK_MINIO_ACCESS_KEY"); v != "" {
		cfg.Artifacts.AccessKey = v
	}
	if v := os.Getenv("EELTRACK_MINIO_SECRET_KEY"); v != "" {
		cfg.Artifacts.SecretKey = v
	}
	if v := os.Getenv("EELTRACK_MINIO_BUCKET"); v != "" {
		cfg.Artifacts.Bucket = v
	}
	if v := os.Getenv("EELTRACK_API_LISTEN"); v != "" {
		cfg.API.Listen = v
	}
	if v := os.Getenv("EELTRACK_MIN_FRAMES_EEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracker.MinFramesEel = n
		}
	}
	if v := os.Getenv("EELTRACK_MAX_FRAMES_MISSED"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracker.MaxFramesMissed = n
		}
	}
}
