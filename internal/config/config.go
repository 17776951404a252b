package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Cities   CitiesConfig   `yaml:"cities"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `yaml:"port"             env:"PORT"             env-default:"8080"`
	AppURL          string        `yaml:"app_url"          env:"APP_URL"          env-default:"http://localhost:8080"`
	CookieSecure    bool          `yaml:"cookie_secure"    env:"COOKIE_SECURE"    env-default:"false"`
	DefaultLanguage string        `yaml:"default_language" env:"DEFAULT_LANGUAGE" env-default:"fa"`
	Timezone        string        `yaml:"timezone"         env:"TZ"               env-default:"Asia/Tehran"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/registry.db"`
}

// AuthConfig holds the shared admin credential and session settings.
// Exactly one of AdminPassword and AdminPasswordHash is needed.
type AuthConfig struct {
	SecretKey         string        `yaml:"secret_key"          env:"SECRET_KEY"`
	AdminPassword     string        `yaml:"admin_password"      env:"ADMIN_PASSWORD"`
	AdminPasswordHash string        `yaml:"admin_password_hash" env:"ADMIN_PASSWORD_HASH"`
	SessionTTL        time.Duration `yaml:"session_ttl"         env:"SESSION_TTL"         env-default:"24h"`
	LoginMaxAttempts  int           `yaml:"login_max_attempts"  env:"LOGIN_MAX_ATTEMPTS"  env-default:"8"`
	LoginWindow       time.Duration `yaml:"login_window"        env:"LOGIN_WINDOW"        env-default:"15m"`
}

// UploadsConfig controls where document photos go and how they are shrunk.
type UploadsConfig struct {
	Dir         string `yaml:"dir"          env:"UPLOAD_DIR"         env-default:"data/uploads"`
	MaxBytes    int64  `yaml:"max_bytes"    env:"UPLOAD_MAX_BYTES"   env-default:"10485760"`
	MaxWidth    int    `yaml:"max_width"    env:"IMAGE_MAX_WIDTH"    env-default:"1600"`
	JPEGQuality int    `yaml:"jpeg_quality" env:"IMAGE_JPEG_QUALITY" env-default:"82"`
	MaxPixels   int64  `yaml:"max_pixels"   env:"IMAGE_MAX_PIXELS"   env-default:"40000000"`
}

// CitiesConfig holds the upstream city list settings.
type CitiesConfig struct {
	URL      string        `yaml:"url"       env:"CITIES_API_URL"   env-default:"https://api.divar.ir/v8/places/cities"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CITIES_CACHE_TTL" env-default:"24h"`
}
