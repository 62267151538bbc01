package config

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string `env:"DB_URI" env-default:"mongodb://127.0.0.1:27017"`
	DatabaseName string `env:"DB_NAME" env-default:"violation-cases"`
	BaseURL      string `env:"BASE_URL" env-default:"http://localhost:8080"`
	PublicWebURL string `env:"PUBLIC_WEB_BASE_URL" env-default:"https://cases.example.org"`
	Port         string `env:"PORT" env-default:"8080"`
	Env          string `env:"ENV" env-default:"local"`

	JWTSecret string `env:"JWT_SECRET"`

	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFromName   string `env:"MAIL_FROM_NAME" env-default:"Violation Case Registry"`
	MailFromEmail  string `env:"MAIL_FROM_EMAIL" env-default:"no-reply@cases.example.org"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`

	// Transactions need a replica set; standalone development servers run without them.
	Transactions bool `env:"DB_TRANSACTIONS" env-default:"true"`

	CaseLockTTL     time.Duration `env:"CASE_LOCK_TTL" env-default:"30s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"20s"`
	ReauthTokenTTL  time.Duration `env:"REAUTH_TOKEN_TTL" env-default:"72h"`
	ApplicantJWTTTL time.Duration `env:"APPLICANT_JWT_TTL" env-default:"2h"`
}

// New sets up all config related services
func New() *Config {
	return newWithLogger(setLogger)
}

func newWithLogger(build func(env string) (*zap.Logger, error)) *Config {
	conf := &Config{}
	// fall back to defaults on a read error so the logger still gets installed
	readErr := cleanenv.ReadEnv(conf)

	//setup zap logger and replace default logger
	logger, err := build(conf.Env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	if readErr != nil {
		zap.S().Warnw("failed to read config from environment", "error", readErr)
	}
	return conf
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "error", err)
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	b, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: errText},
	})
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}
