package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug           bool
		TestMode        bool
		AppName         string
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		SecretKey       string
		FrontendBaseURL string
		WorkDir         string
		RollbarToken    string

		Server   ServerConfig
		Database DatabaseConfig
		Email    EmailConfig
		Push     PushConfig
		Notify   NotifyConfig
		Payments PaymentsConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		JWTIssuer       string
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
		InMemory   bool
	}

	EmailConfig struct {
		Provider         string // console, sendgrid, ses
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		SESRegion        string
	}

	PushConfig struct {
		VAPIDPublicKey  string
		VAPIDPrivateKey string
		Subscriber      string
		TTL             int
		Timeout         time.Duration
		PruneExpired    bool
	}

	NotifyConfig struct {
		Workers int
	}

	PaymentsConfig struct {
		WebhookSecret string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// EnvVar returns the environment variable NewConfig reads for key, e.g.
// "push.vapidPublicKey" -> "PROD_PUSH_VAPIDPUBLICKEY".
func (c *Config) EnvVar(key string) string {
	return strings.ToUpper(c.Env + "_" + envKeyReplacer.Replace(key))
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` (if any) and the environment.
// Environment variables are prefixed with the current ENV, e.g. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "KodaEd")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k0da-3d$dev+secret=change-me")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtIssuer", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "kodaed")
	v.SetDefault("database.user", "kodaed")
	v.SetDefault("database.password", "kodaed")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.inMemory", false)

	v.SetDefault("email.provider", "console")
	v.SetDefault("email.defaultFromName", "KodaEd")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("email.sendgridAPIKey", "")
	v.SetDefault("email.sesRegion", "us-east-1")

	v.SetDefault("push.vapidPublicKey", "")
	v.SetDefault("push.vapidPrivateKey", "")
	v.SetDefault("push.subscriber", "soporte@kodaed.com")
	v.SetDefault("push.ttl", 60*60*24)
	v.SetDefault("push.timeout", 10*time.Second)
	v.SetDefault("push.pruneExpired", true)

	v.SetDefault("notify.workers", 16)

	v.SetDefault("payments.webhookSecret", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(envKeyReplacer)

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		Env:             env,
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		WorkDir:         wd,
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			JWTIssuer:       v.GetString("server.jwtIssuer"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
			InMemory:   v.GetBool("database.inMemory"),
		},
		Email: EmailConfig{
			Provider: strings.ToLower(v.GetString("email.provider")),
			DefaultFromEmail: mail.Address{
				Name:    v.GetString("email.defaultFromName"),
				Address: v.GetString("email.defaultFromEmail"),
			},
			SendgridAPIKey: v.GetString("email.sendgridAPIKey"),
			SESRegion:      v.GetString("email.sesRegion"),
		},
		Push: PushConfig{
			VAPIDPublicKey:  v.GetString("push.vapidPublicKey"),
			VAPIDPrivateKey: v.GetString("push.vapidPrivateKey"),
			Subscriber:      v.GetString("push.subscriber"),
			TTL:             v.GetInt("push.ttl"),
			Timeout:         v.GetDuration("push.timeout"),
			PruneExpired:    v.GetBool("push.pruneExpired"),
		},
		Notify: NotifyConfig{
			Workers: v.GetInt("notify.workers"),
		},
		Payments: PaymentsConfig{
			WebhookSecret: v.GetString("payments.webhookSecret"),
		},
	}
}
