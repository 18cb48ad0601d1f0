package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestBodySize    int64         `env:"MAX_REQUEST_BODY_SIZE,default=1048576"`

	// database settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// fabric gateway settings
	PeerEndpoint         string        `env:"PEER_ENDPOINT,default=dns:///localhost:7051"`
	GatewayPeer          string        `env:"GATEWAY_PEER,default=peer0.org1.example.com"`
	TLSCertPath          string        `env:"TLS_CERT_PATH"`
	MSPID                string        `env:"MSP_ID,default=Org1MSP"`
	ChannelName          string        `env:"CHANNEL_NAME,default=mychannel"`
	ChaincodeName        string        `env:"CHAINCODE_NAME,default=basic"`
	LedgerUserID         string        `env:"LEDGER_USER_ID,default=appUser"`
	EvaluateTimeout      time.Duration `env:"EVALUATE_TIMEOUT,default=5s"`
	EndorseTimeout       time.Duration `env:"ENDORSE_TIMEOUT,default=15s"`
	SubmitTimeout        time.Duration `env:"SUBMIT_TIMEOUT,default=5s"`
	CommitStatusTimeout  time.Duration `env:"COMMIT_STATUS_TIMEOUT,default=1m"`

	// certificate authority settings
	CAURL             string        `env:"CA_URL,default=https://localhost:7054"`
	CAName            string        `env:"CA_NAME,default=ca-org1"`
	CATLSCertPath     string        `env:"CA_TLS_CERT_PATH"`
	CAAdminID         string        `env:"CA_ADMIN_ID,default=admin"`
	CAAdminSecret     string        `env:"CA_ADMIN_SECRET,default=adminpw"`
	CATimeout         time.Duration `env:"CA_TIMEOUT,default=30s"`
	EnrollAffiliation string        `env:"ENROLL_AFFILIATION,default=org1.department1"`

	// Required deployment-specific configuration
	DatabaseURL     string `env:"DATABASE_URL,required=true"`
	TokenSecret     string `env:"TOKEN_SECRET,required=true"`
	EnrollSecretKey string `env:"ENROLL_SECRET_KEY,required=true"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil

}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.MSPID == "" {
		return fmt.Errorf("MSP_ID must not be empty")
	}
	if cfg.ChannelName == "" || cfg.ChaincodeName == "" {
		return fmt.Errorf("CHANNEL_NAME and CHAINCODE_NAME must not be empty")
	}
	if cfg.LedgerUserID == "" {
		return fmt.Errorf("LEDGER_USER_ID must not be empty")
	}

	return nil
}
