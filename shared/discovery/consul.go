package discovery

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	consulapi "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// ConsulConfig holds the agent address and how this instance advertises itself.
type ConsulConfig struct {
	Enabled        bool          `env:"ENABLED"         envDefault:"false"`
	Addr           string        `env:"ADDR"            envDefault:"127.0.0.1:8500"`
	ServiceAddress string        `env:"SERVICE_ADDRESS" envDefault:"127.0.0.1"`
	ServicePort    int           `env:"SERVICE_PORT"    envDefault:"8080"`
	CheckInterval  time.Duration `env:"CHECK_INTERVAL"  envDefault:"10s"`
}

// Registry registers a single service instance with the local Consul agent.
type Registry struct {
	client     *consulapi.Client
	logger     *zerolog.Logger
	instanceID string
}

// NewRegistry creates a Registry connected to the agent at cfg.Addr.
func NewRegistry(cfg ConsulConfig, logger *zerolog.Logger) (*Registry, error) {
	apiCfg := consulapi.DefaultConfig()
	apiCfg.Address = cfg.Addr

	client, err := consulapi.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &Registry{
		client: client,
		logger: logger,
	}, nil
}

// Register advertises the service with an HTTP health check on healthPath.
func (r *Registry) Register(serviceName string, cfg ConsulConfig, healthPath string) error {
	r.instanceID = fmt.Sprintf("%s-%s", serviceName, uuid.NewString())

	registration := NewRegistration(r.instanceID, serviceName, cfg, healthPath)
	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service %q: %w", serviceName, err)
	}

	r.logger.Info().
		Str("instance_id", r.instanceID).
		Str("address", registration.Address).
		Int("port", registration.Port).
		Msg("registered service with consul")

	return nil
}

// Deregister removes the instance registered by Register. It is a no-op when
// nothing was registered.
func (r *Registry) Deregister() error {
	if r.instanceID == "" {
		return nil
	}

	if err := r.client.Agent().ServiceDeregister(r.instanceID); err != nil {
		return fmt.Errorf("failed to deregister service %q: %w", r.instanceID, err)
	}

	return nil
}

// NewRegistration builds the agent registration for one instance.
func NewRegistration(instanceID, serviceName string, cfg ConsulConfig, healthPath string) *consulapi.AgentServiceRegistration {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &consulapi.AgentServiceRegistration{
		ID:      instanceID,
		Name:    serviceName,
		Address: cfg.ServiceAddress,
		Port:    cfg.ServicePort,
		Tags:    []string{"http"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", cfg.ServiceAddress, cfg.ServicePort, healthPath),
			Interval:                       interval.String(),
			Timeout:                        (interval / 2).String(),
			DeregisterCriticalServiceAfter: (interval * 6).String(),
		},
	}
}
