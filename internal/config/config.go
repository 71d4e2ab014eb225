package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	LLM    LLMConfig
	Store  StoreConfig
	Builds BuildsConfig
}

type LLMConfig struct {
	// Fake switches the pipeline to the canned client for local work and
	// tests. Active automatically when no API key is configured.
	Fake  bool
	Model string
}

type StoreConfig struct {
	// MLOpsPath is the JSON file backing the ML store when no Postgres
	// DSN is configured.
	MLOpsPath string
	PGDSN     string
}

type BuildsConfig struct {
	// Dir is where generated application trees are written locally.
	Dir string
	S3  S3Config
}

type S3Config struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port: *port,
		Env:  env,
		LLM: LLMConfig{
			Fake:  resolveFakeLLM(),
			Model: firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
		},
		Store: StoreConfig{
			MLOpsPath: firstNonEmpty(strings.TrimSpace(os.Getenv("MLOPS_STORE_PATH")), "data/mlops.json"),
			PGDSN:     strings.TrimSpace(os.Getenv("MLOPS_STORE_PG_DSN")),
		},
		Builds: BuildsConfig{
			Dir: firstNonEmpty(strings.TrimSpace(os.Getenv("BUILDS_DIR")), "data/builds"),
			S3:  loadS3Config(env),
		},
	}, nil
}

func resolveFakeLLM() bool {
	raw := strings.TrimSpace(os.Getenv("LLM_FAKE"))
	if raw != "" {
		v, err := strconv.ParseBool(raw)
		if err == nil {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) == ""
}

func loadS3Config(env string) S3Config {
	endpoint := resolveS3Endpoint(env)
	return S3Config{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("BUILDS_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BUILDS_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BUILDS_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("BUILDS_S3_BUCKET")), "appforge-builds"),
		UseSSL:    resolveS3UseSSL(env),
	}
}

func resolveS3Endpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("BUILDS_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("BUILDS_S3_ENDPOINT"))
}

func resolveS3UseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("BUILDS_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
