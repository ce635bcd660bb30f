package config

import (
	"log"
	"math"
	"os"
	"strconv"

	"svg_exporter/internal/model"
	"svg_exporter/internal/util"

	"github.com/joho/godotenv"
)

// 既定値
const (
	DefaultJPEGQuality   = 95
	DefaultCanvasWidth   = 800
	DefaultCanvasHeight  = 600
	DefaultMaxPixels     = 100_000_000
	DefaultLanguage      = "ja"
	DefaultOutputDirName = "."
)

type Config struct {
	// スケール設定
	CopyScale   float64
	ExportScale float64

	// エンコード設定
	JPEGQuality int

	// フォールバックキャンバス
	DefaultWidth  int
	DefaultHeight int

	// 描画面の最大ピクセル数 (幅*高さ)
	MaxPixels int

	OutputDir   string
	Language    string
	StrictParse bool
}

// Default returns the configuration used when no environment is loaded.
func Default() *Config {
	return &Config{
		CopyScale:     model.CopyScale,
		ExportScale:   model.ExportScale,
		JPEGQuality:   DefaultJPEGQuality,
		DefaultWidth:  DefaultCanvasWidth,
		DefaultHeight: DefaultCanvasHeight,
		MaxPixels:     DefaultMaxPixels,
		OutputDir:     DefaultOutputDirName,
		Language:      DefaultLanguage,
	}
}

// LoadEnvironment loads the .env file if present. An explicit path that
// cannot be read is logged; a missing default .env is not an error.
func LoadEnvironment(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf(".envファイルの読み込みに失敗しました (%s): %v", envFile, err)
			return
		}
		log.Printf(".envファイルを読み込みました: %s", envFile)
		return
	}

	envPath, ok := util.FindFilePath(".env")
	if !ok {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		log.Printf(".envファイルの読み込みに失敗しました (%s): %v", envPath, err)
		return
	}
	log.Printf(".envファイルを読み込みました: %s", envPath)
}

func LoadConfig() *Config {
	return &Config{
		CopyScale:   parseScaleWithDefault(os.Getenv("SVGEXPORT_COPY_SCALE"), model.CopyScale),
		ExportScale: parseScaleWithDefault(os.Getenv("SVGEXPORT_EXPORT_SCALE"), model.ExportScale),

		JPEGQuality: clampQuality(parseIntWithDefault(os.Getenv("SVGEXPORT_JPEG_QUALITY"), DefaultJPEGQuality)),

		DefaultWidth:  parsePositiveIntWithDefault(os.Getenv("SVGEXPORT_DEFAULT_WIDTH"), DefaultCanvasWidth),
		DefaultHeight: parsePositiveIntWithDefault(os.Getenv("SVGEXPORT_DEFAULT_HEIGHT"), DefaultCanvasHeight),
		MaxPixels:     parsePositiveIntWithDefault(os.Getenv("SVGEXPORT_MAX_PIXELS"), DefaultMaxPixels),

		OutputDir:   stringWithDefault(os.Getenv("SVGEXPORT_OUTPUT_DIR"), DefaultOutputDirName),
		Language:    stringWithDefault(os.Getenv("SVGEXPORT_LANG"), DefaultLanguage),
		StrictParse: parseBool(os.Getenv("SVGEXPORT_STRICT"), false),
	}
}

func parseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}

func parseIntWithDefault(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parsePositiveIntWithDefault(value string, defaultValue int) int {
	parsed := parseIntWithDefault(value, defaultValue)
	if parsed <= 0 {
		log.Printf("正の整数を指定してください。既定値を使用します: %q", value)
		return defaultValue
	}
	return parsed
}

// parseScaleWithDefault accepts only finite values >= 1.
func parseScaleWithDefault(value string, defaultValue float64) float64 {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 1 || parsed > 64 {
		log.Printf("スケール値が無効です。既定値 %v を使用します: %q", defaultValue, value)
		return defaultValue
	}
	return parsed
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

func stringWithDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
