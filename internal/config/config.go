package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultJWTExpiresIn = "24h"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "relaydesk"
	DefaultPGSSLMode    = "disable"
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Admin     AdminConfig     `toml:"admin"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Line      LineConfig      `toml:"line"`
	Messenger MessengerConfig `toml:"messenger"`
	Webchat   WebchatConfig   `toml:"webchat"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AdminConfig seeds the first staff account on boot.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Email    string `toml:"email"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// LineConfig holds the closed-messaging provider credentials. The channel
// secret signs webhook bodies; the access token authorizes push sends; the
// login section backs webchat link-via-OAuth.
type LineConfig struct {
	ChannelSecret string      `toml:"channel_secret"`
	AccessToken   string      `toml:"access_token"`
	PushURL       string      `toml:"push_url"`
	Login         OAuthConfig `toml:"login"`
}

// MessengerConfig holds the social-messenger page credentials.
type MessengerConfig struct {
	AppSecret       string      `toml:"app_secret"`
	PageAccessToken string      `toml:"page_access_token"`
	SendURL         string      `toml:"send_url"`
	VerifyToken     string      `toml:"verify_token"`
	Login           OAuthConfig `toml:"login"`
}

// WebchatConfig controls the embedded widget channel.
type WebchatConfig struct {
	WidgetSecret string `toml:"widget_secret"`
}

// OAuthConfig is one provider login app used for webchat identity linking.
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
	RedirectURL  string `toml:"redirect_url"`
	ProfileURL   string `toml:"profile_url"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
			Email:    "you@example.com",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Line: LineConfig{
			PushURL: "https://api.line.me/v2/bot/message/push",
			Login: OAuthConfig{
				AuthURL:    "https://access.line.me/oauth2/v2.1/authorize",
				TokenURL:   "https://api.line.me/oauth2/v2.1/token",
				ProfileURL: "https://api.line.me/v2/profile",
			},
		},
		Messenger: MessengerConfig{
			SendURL: "https://graph.facebook.com/v19.0/me/messages",
			Login: OAuthConfig{
				AuthURL:    "https://www.facebook.com/v19.0/dialog/oauth",
				TokenURL:   "https://graph.facebook.com/v19.0/oauth/access_token",
				ProfileURL: "https://graph.facebook.com/me?fields=id,name,email",
			},
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
