package cmd

import (
	"github.com/oobauth/oobauth/internal/bootstrap"
	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/utils/tlog"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "oobauth",
	Short: "An out-of-band authorization server.",
	Long:  `Oobauth is an OAuth authorization server for flows where approval happens away from the requesting device, implementing client initiated backchannel authentication and the device authorization grant.`,
	Run: func(cmd *cobra.Command, args []string) {
		var conf config.Config
		err := viper.Unmarshal(&conf)
		HandleError(err, "Failed to parse config")

		logger := tlog.NewLogger(conf.LogLevel, conf.LogJSON)
		logger.Init()

		log.Info().Msg("Validating config")
		validate := validator.New()
		err = validate.Struct(conf)
		HandleError(err, "Invalid config")

		app := bootstrap.NewBootstrapApp(conf)
		err = app.Setup()
		HandleError(err, "Failed to start")
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}

func HandleError(err error, msg string) {
	if err != nil {
		log.Fatal().Err(err).Msg(msg)
	}
}

func init() {
	versionCmd := newVersionCmd(rootCmd)
	versionCmd.Register()

	viper.AutomaticEnv()

	rootCmd.Flags().Int("port", 3000, "Port to run the server on.")
	rootCmd.Flags().String("address", "0.0.0.0", "Address to bind the server to.")
	rootCmd.Flags().String("app-url", "", "Public URL of the server.")
	rootCmd.Flags().String("issuer", "", "Issuer identifier for signed tokens, defaults to the app URL.")
	rootCmd.Flags().String("database-path", "data/oobauth.db", "Path to the sqlite database.")
	rootCmd.Flags().String("clients-file", "", "Path to a file containing registered clients.")
	rootCmd.Flags().String("operator-token", "", "Bearer token that protects the approval endpoints.")
	rootCmd.Flags().String("log-level", "info", "Log level.")
	rootCmd.Flags().Bool("log-json", false, "Log in JSON format.")
	rootCmd.Flags().String("trusted-proxies", "", "Comma separated list of trusted proxies.")
	rootCmd.Flags().Int("default-expiry", 300, "Default lifetime of an authorization request in seconds.")
	rootCmd.Flags().Int("max-expiry", 600, "Maximum lifetime of an authorization request in seconds.")
	rootCmd.Flags().Int("poll-interval", 5, "Minimum polling interval in seconds.")
	rootCmd.Flags().Int("retention-grace", 600, "How long finished requests stay queryable after expiry, in seconds.")
	rootCmd.Flags().Int("sweep-interval", 30, "Interval between expiry sweeps in seconds.")
	rootCmd.Flags().Int("access-token-expiry", 3600, "Access token lifetime in seconds.")
	rootCmd.Flags().Int("id-token-expiry", 3600, "ID token lifetime in seconds.")
	rootCmd.Flags().Int("notification-retries", 5, "Delivery attempts for ping and push notifications.")

	viper.BindEnv("port", "PORT")
	viper.BindEnv("address", "ADDRESS")
	viper.BindEnv("app-url", "APP_URL")
	viper.BindEnv("issuer", "ISSUER")
	viper.BindEnv("database-path", "DATABASE_PATH")
	viper.BindEnv("clients-file", "CLIENTS_FILE")
	viper.BindEnv("operator-token", "OPERATOR_TOKEN")
	viper.BindEnv("log-level", "LOG_LEVEL")
	viper.BindEnv("log-json", "LOG_JSON")
	viper.BindEnv("trusted-proxies", "TRUSTED_PROXIES")
	viper.BindEnv("default-expiry", "DEFAULT_EXPIRY")
	viper.BindEnv("max-expiry", "MAX_EXPIRY")
	viper.BindEnv("poll-interval", "POLL_INTERVAL")
	viper.BindEnv("retention-grace", "RETENTION_GRACE")
	viper.BindEnv("sweep-interval", "SWEEP_INTERVAL")
	viper.BindEnv("access-token-expiry", "ACCESS_TOKEN_EXPIRY")
	viper.BindEnv("id-token-expiry", "ID_TOKEN_EXPIRY")
	viper.BindEnv("notification-retries", "NOTIFICATION_RETRIES")

	viper.BindPFlags(rootCmd.Flags())
}
