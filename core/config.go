package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug       bool
	TestMode    bool
	AppName     string
	Env         string
	Build       string
	SecretKey   string
	UploadDir   string
	SeedCourses bool

	Server struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration
		SessionTTL      time.Duration
		CookieSecure    bool
		AuthRateLimit   float64 // requests per second per IP on auth routes; 0 disables
		AllowOrigins    []string
	}

	Database struct {
		Engine        string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	AI struct {
		APIKey    string
		BaseURL   string
		Model     string
		MaxTokens int
	}

	RollbarToken     string
	SendgridApiKey   string
	DefaultFromEmail mail.Address
}

func (c *Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

// NewConfig loads the configuration of the current ENV (DEV by default, TEST, QA or PROD).
// Values come from defaults, then config/.env.<env> if present, then <ENV>_* environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Sejali")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "7w!k2p$c9z+sejali-dev-secret)u4m#q8r")
	v.SetDefault("uploadDir", "uploads")
	v.SetDefault("seedCourses", true)
	v.SetDefault("defaultFromEmail", "Sejali <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.requestTimeout", 30*time.Second)
	v.SetDefault("server.sessionTTL", 7*24*time.Hour)
	v.SetDefault("server.cookieSecure", false)
	v.SetDefault("server.authRateLimit", 10.0)
	v.SetDefault("server.allowOrigins", []string{"http://localhost:5173"})

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "sejali")
	v.SetDefault("database.password", "sejali")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.name", "sejali")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseURL", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-5-nano")
	v.SetDefault("ai.maxTokens", 8192)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("database.name", "sejali_test")
		v.SetDefault("seedCourses", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ProjectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		AppName:        v.GetString("appName"),
		Env:            env,
		Build:          v.GetString("build"),
		SecretKey:      v.GetString("secretKey"),
		UploadDir:      v.GetString("uploadDir"),
		SeedCourses:    v.GetBool("seedCourses"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
	}

	conf.Server.Host = v.GetString("server.host")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.RequestTimeout = v.GetDuration("server.requestTimeout")
	conf.Server.SessionTTL = v.GetDuration("server.sessionTTL")
	conf.Server.CookieSecure = v.GetBool("server.cookieSecure")
	conf.Server.AuthRateLimit = v.GetFloat64("server.authRateLimit")
	conf.Server.AllowOrigins = v.GetStringSlice("server.allowOrigins")

	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")

	conf.AI.APIKey = v.GetString("ai.apiKey")
	conf.AI.BaseURL = v.GetString("ai.baseURL")
	conf.AI.Model = v.GetString("ai.model")
	conf.AI.MaxTokens = v.GetInt("ai.maxTokens")

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	conf.DefaultFromEmail = *from

	return conf
}

// NewTestConfig returns a DEBUG+TEST configuration that does not read the environment.
func NewTestConfig() *Config {
	conf := &Config{
		Debug:     true,
		TestMode:  true,
		AppName:   "Sejali",
		Env:       "TEST",
		Build:     "test",
		SecretKey: "test-secret-key",
		UploadDir: filepath.Join(os.TempDir(), "sejali-test-uploads"),
	}
	conf.Server.ShutdownTimeout = time.Second
	conf.Server.RequestTimeout = 5 * time.Second
	conf.Server.SessionTTL = 7 * 24 * time.Hour
	conf.DefaultFromEmail = mail.Address{Name: "Sejali", Address: "noreply@localhost"}
	return conf
}

// ProjectRoot walks up from the working directory to the directory holding go.mod.
// go test runs inside the package directory, so relative paths need an anchor.
// Falls back to the working directory when no go.mod is found (e.g. deployed binaries).
func ProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
