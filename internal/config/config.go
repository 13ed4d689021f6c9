package config

// Version information, set at build time

var Version = "development"
var CommitHash = "development"
var BuildTimestamp = "0000-00-00T00:00:00Z"

// Grant type URNs for the two asynchronous flows

var GrantTypeCIBA = "urn:openid:params:grant-type:ciba"
var GrantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

// Main app config

type Config struct {
	Port                int    `mapstructure:"port" validate:"required"`
	Address             string `mapstructure:"address" validate:"required,ip4_addr"`
	AppURL              string `mapstructure:"app-url" validate:"required,url"`
	Issuer              string `mapstructure:"issuer"`
	DatabasePath        string `mapstructure:"database-path" validate:"required"`
	ClientsFile         string `mapstructure:"clients-file"`
	OperatorToken       string `mapstructure:"operator-token" validate:"required"`
	LogLevel            string `mapstructure:"log-level" validate:"oneof=trace debug info warn error fatal panic"`
	LogJSON             bool   `mapstructure:"log-json"`
	TrustedProxies      string `mapstructure:"trusted-proxies"`
	DefaultExpiry       int    `mapstructure:"default-expiry" validate:"required,min=30"`
	MaxExpiry           int    `mapstructure:"max-expiry" validate:"required,min=30"`
	PollInterval        int    `mapstructure:"poll-interval" validate:"required,min=1"`
	RetentionGrace      int    `mapstructure:"retention-grace"`
	SweepInterval       int    `mapstructure:"sweep-interval" validate:"required,min=1"`
	AccessTokenExpiry   int    `mapstructure:"access-token-expiry"`
	IDTokenExpiry       int    `mapstructure:"id-token-expiry"`
	NotificationRetries int    `mapstructure:"notification-retries"`
}

// Registered client config, synced into the database at startup

type ClientConfig struct {
	ClientID             string   `mapstructure:"client-id"`
	ClientSecret         string   `mapstructure:"client-secret"`
	ClientSecretFile     string   `mapstructure:"client-secret-file"`
	Name                 string   `mapstructure:"name"`
	GrantTypes           []string `mapstructure:"grant-types"`
	Scopes               []string `mapstructure:"scopes"`
	TokenDeliveryModes   []string `mapstructure:"token-delivery-modes"`
	NotificationEndpoint string   `mapstructure:"notification-endpoint"`
}

type ClientsFile struct {
	Clients map[string]ClientConfig `mapstructure:"clients"`
}

// Identity resolved by the approving human for a request

type Identity struct {
	UserID  string
	Subject string
}
