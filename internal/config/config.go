package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// NMSMethodOpenCV delegates suppression to gocv.NMSBoxes.
	NMSMethodOpenCV = "opencv"
	// NMSMethodGreedy uses the in-process greedy suppressor with a configurable tie-break.
	NMSMethodGreedy = "greedy"

	// TieBreakFirst keeps the earliest detection among equal scores.
	TieBreakFirst = "first"
	// TieBreakArea keeps the larger box among equal scores.
	TieBreakArea = "area"

	// TerminatorEmpty ends a failed stream with a zero-length chunk.
	TerminatorEmpty = "empty"
	// TerminatorClose ends a failed stream with the closing multipart boundary.
	TerminatorClose = "close"

	// LeaseRefuse rejects a second consumer of the camera.
	LeaseRefuse = "refuse"
	// LeaseQueue makes a second consumer wait for the camera.
	LeaseQueue = "queue"
)

type Config struct {
	Port      int
	StaticDir string

	WeightsDirectory string
	WeightsFile      string
	ModelConfigFile  string
	Classes          []string

	CameraIndices []int
	FrameWidth    int
	FrameHeight   int
	FrameRate     int

	InputSize           int
	ConfidenceThreshold float64 // Decoder floor, exclusive
	ScoreThreshold      float64
	NMSThreshold        float64 // IoU at or above which the weaker box is dropped
	NMSMethod           string
	NMSTieBreak         string

	StreamPacing     time.Duration
	StreamTerminator string
	JPEGQuality      int
	LeasePolicy      string
	ColorSeed        int64

	LogDirectory string
	LogLevel     string
	WindowTitle  string
}

// Load reads configuration from the environment. Any envFiles are loaded first;
// variables already present in the environment take precedence over them.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	return &Config{
		Port:      getEnvAsInt("PORT", 5000),
		StaticDir: getEnv("STATIC_DIR", "static"),

		WeightsDirectory: getEnv("WEIGHTS_DIR", "weights"),
		WeightsFile:      getEnv("WEIGHTS_FILE", "yolov3_training_2000.weights"),
		ModelConfigFile:  getEnv("MODEL_CONFIG_FILE", "yolov3_testing.cfg"),
		Classes:          getEnvAsList("CLASSES", []string{"Weapon"}),

		CameraIndices: getEnvAsIntList("CAMERA_INDICES", []int{0, 1, 2}),
		FrameWidth:    getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:   getEnvAsInt("FRAME_HEIGHT", 480),
		FrameRate:     getEnvAsInt("FRAME_RATE", 30),

		InputSize:           getEnvAsInt("INPUT_SIZE", 416),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		ScoreThreshold:      getEnvAsFloat("SCORE_THRESHOLD", 0.5),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.4),
		NMSMethod:           getEnvOneOf("NMS_METHOD", NMSMethodOpenCV, NMSMethodGreedy),
		NMSTieBreak:         getEnvOneOf("NMS_TIE_BREAK", TieBreakFirst, TieBreakArea),

		StreamPacing:     time.Duration(getEnvAsInt("STREAM_PACING_MS", 10)) * time.Millisecond,
		StreamTerminator: getEnvOneOf("STREAM_TERMINATOR", TerminatorEmpty, TerminatorClose),
		JPEGQuality:      getEnvAsInt("JPEG_QUALITY", 95),
		LeasePolicy:      getEnvOneOf("LEASE_POLICY", LeaseRefuse, LeaseQueue),
		ColorSeed:        getEnvAsInt64("COLOR_SEED", 0),

		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		WindowTitle:  getEnv("WINDOW_TITLE", "Weapon Detection"),
	}
}

// WeightsPath is the binary weights artifact inside the weights directory.
func (c *Config) WeightsPath() string {
	return filepath.Join(c.WeightsDirectory, c.WeightsFile)
}

// ModelConfigPath is the topology artifact inside the weights directory.
func (c *Config) ModelConfigPath() string {
	return filepath.Join(c.WeightsDirectory, c.ModelConfigFile)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOneOf returns the value of key if it is one of allowed, else allowed[0].
func getEnvOneOf(key string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return allowed[0]
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// getEnvAsIntList parses a comma separated list; one bad entry voids the whole value.
func getEnvAsIntList(key string, defaultValue []int) []int {
	items := getEnvAsList(key, nil)
	if items == nil {
		return defaultValue
	}
	values := make([]int, 0, len(items))
	for _, item := range items {
		v, err := strconv.Atoi(item)
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}
	return values
}
