package temporalx

import (
	"strings"
	"time"

	"github.com/yungbote/quizpages/internal/pkg/logger"
	"github.com/yungbote/quizpages/internal/utils"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	NamespaceRetention    time.Duration

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	DialBackoff    time.Duration
	DialBackoffMax time.Duration
}

// Enabled reports whether a Temporal address is configured.
func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) mTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Address:   strings.TrimSpace(utils.GetEnv("TEMPORAL_ADDRESS", "", log)),
		Namespace: strings.TrimSpace(utils.GetEnv("TEMPORAL_NAMESPACE", "quizpages", log)),
		TaskQueue: strings.TrimSpace(utils.GetEnv("TEMPORAL_TASK_QUEUE", "quizpages-pagegen", log)),

		ClientCertPath: strings.TrimSpace(utils.GetEnv("TEMPORAL_CLIENT_CERT_PATH", "", log)),
		ClientKeyPath:  strings.TrimSpace(utils.GetEnv("TEMPORAL_CLIENT_KEY_PATH", "", log)),
		ClientCAPath:   strings.TrimSpace(utils.GetEnv("TEMPORAL_CLIENT_CA_PATH", "", log)),

		AutoRegisterNamespace: utils.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, log),
		NamespaceRetention:    utils.GetEnvAsDuration("TEMPORAL_NAMESPACE_RETENTION", 7*24*time.Hour, log),

		DialTimeout:    utils.GetEnvAsDuration("TEMPORAL_DIAL_TIMEOUT", 5*time.Second, log),
		DialMaxWait:    utils.GetEnvAsDuration("TEMPORAL_DIAL_MAX_WAIT", time.Minute, log),
		DialBackoff:    utils.GetEnvAsDuration("TEMPORAL_DIAL_BACKOFF", 250*time.Millisecond, log),
		DialBackoffMax: utils.GetEnvAsDuration("TEMPORAL_DIAL_BACKOFF_MAX", 5*time.Second, log),
	}
}
