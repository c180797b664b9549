package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string        `mapstructure:"address"`
		DisableReqLogs  bool          `mapstructure:"disablereqlogs"`
		ShutdownTimeout time.Duration `mapstructure:"shutdowntimeout"`
	}

	DatabaseConfig struct {
		Engine     string `mapstructure:"engine"` // inmem | sqlite3 | postgres
		Path       string `mapstructure:"path"`   // sqlite3 only
		Host       string `mapstructure:"host"`
		Port       int    `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		DisableTLS bool   `mapstructure:"disabletls"`
	}

	SheetsConfig struct {
		BaseURL            string        `mapstructure:"baseurl"`
		TestsSourceID      string        `mapstructure:"testssourceid"`
		AttendanceSourceID string        `mapstructure:"attendancesourceid"`
		Timeout            time.Duration `mapstructure:"timeout"`
		MaxBodyBytes       int64         `mapstructure:"maxbodybytes"`
	}

	SyncConfig struct {
		Timeout  time.Duration `mapstructure:"timeout"`
		Strict   bool          `mapstructure:"strict"`
		Interval time.Duration `mapstructure:"interval"` // 0 disables the scheduler
	}

	AIConfig struct {
		BaseURL   string        `mapstructure:"baseurl"`
		APIKey    string        `mapstructure:"apikey"`
		Model     string        `mapstructure:"model"`
		Timeout   time.Duration `mapstructure:"timeout"`
		Language  string        `mapstructure:"language"`
		RateLimit float64       `mapstructure:"ratelimit"` // requests per second
	}

	Config struct {
		AppName          string `mapstructure:"appname"`
		Env              string `mapstructure:"env"`
		Build            string `mapstructure:"build"`
		Debug            bool   `mapstructure:"debug"`
		TestMode         bool   `mapstructure:"testmode"`
		RollbarToken     string `mapstructure:"rollbartoken"`
		SendgridApiKey   string `mapstructure:"sendgridapikey"`
		DefaultFromEmail string `mapstructure:"defaultfromemail"`
		InstructorEmail  string `mapstructure:"instructoremail"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"database"`
		Sheets   SheetsConfig   `mapstructure:"sheets"`
		Sync     SyncConfig     `mapstructure:"sync"`
		AI       AIConfig       `mapstructure:"ai"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "Classboard")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("instructorEmail", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)

	v.SetDefault("database.engine", "sqlite3")
	v.SetDefault("database.path", "classboard.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "classboard")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("sheets.baseURL", "https://docs.google.com/spreadsheets/d")
	v.SetDefault("sheets.testsSourceID", "17dG3mTQchr4oib6jIkHuFUwOITzjgRnlrKpvUkV4yMA")
	v.SetDefault("sheets.attendanceSourceID", "14NXZPjfWPFQVrAnuouYT2PVYLFCjHki_nIYUPoRj50o")
	v.SetDefault("sheets.timeout", 20*time.Second)
	v.SetDefault("sheets.maxBodyBytes", int64(10<<20))

	v.SetDefault("sync.timeout", 30*time.Second)
	v.SetDefault("sync.strict", false)
	v.SetDefault("sync.interval", time.Duration(0))

	v.SetDefault("ai.baseURL", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 90*time.Second)
	v.SetDefault("ai.language", "Myanmar")
	v.SetDefault("ai.rateLimit", 0.5)
}

// NewConfig loads the app configuration.
// Values are read, by order of precedence, from: environment variables, config/.env.{env}, defaults.
// Environment variables are prefixed by the env name, eg. `DEV_SHEETS_TIMEOUT=5s`.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.SetDefault("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	return conf
}

// DefaultFromAddress formats the sender used for outgoing emails.
func (c *Config) DefaultFromAddress() string {
	if c.AppName == "" {
		return c.DefaultFromEmail
	}
	return c.AppName + " <" + c.DefaultFromEmail + ">"
}
