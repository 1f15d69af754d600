// Package consul registers the API with a HashiCorp Consul agent so that
// other services can discover it.
package consul

import (
	"fmt"
	"log/slog"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceName is the name the API registers under
const ServiceName = "medialist-api"

// Registration describes the service instance handed to the agent
type Registration struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *HealthCheck
}

// HealthCheck is the agent-side HTTP check against /health
type HealthCheck struct {
	HTTP     string
	Interval string
	Timeout  string
}

// NewRegistration builds the registration for an instance reachable at host:port.
// The ID is stable per host and port so restarts replace the previous entry.
func NewRegistration(host string, port int) *Registration {
	p := strconv.Itoa(port)
	return &Registration{
		ID:      fmt.Sprintf("%s-%s-%s", ServiceName, host, p),
		Name:    ServiceName,
		Address: host,
		Port:    port,
		Tags:    []string{"api", "sessions", "catalogue"},
		Check: &HealthCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/health", host, p),
			Interval: "10s",
			Timeout:  "3s",
		},
	}
}

// agent is the subset of the Consul agent API the registry uses
type agent interface {
	ServiceRegister(reg *consulapi.AgentServiceRegistration) error
	ServiceDeregister(serviceID string) error
}

// Registry registers and deregisters service instances
type Registry struct {
	agent  agent
	logger *slog.Logger
}

// NewRegistry connects to the agent at addr, authenticating with token when set
func NewRegistry(addr, token string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := consulapi.DefaultConfig()
	config.Address = addr
	if token != "" {
		config.Token = token
	}

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &Registry{agent: client.Agent(), logger: logger}, nil
}

// Register registers reg with the agent, first removing any stale entry with
// the same ID left by a crashed instance.
func (r *Registry) Register(reg *Registration) error {
	// Usually fails only because there is no stale entry
	if err := r.agent.ServiceDeregister(reg.ID); err != nil {
		r.logger.Debug("Stale service entry not removed", "service_id", reg.ID, "error", err.Error())
	}

	if err := r.agent.ServiceRegister(toAgentRegistration(reg)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// Deregister removes a service instance from the agent
func (r *Registry) Deregister(serviceID string) error {
	if err := r.agent.ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

func toAgentRegistration(reg *Registration) *consulapi.AgentServiceRegistration {
	out := &consulapi.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}
	if reg.Check != nil {
		out.Check = &consulapi.AgentServiceCheck{
			HTTP:     reg.Check.HTTP,
			Interval: reg.Check.Interval,
			Timeout:  reg.Check.Timeout,
		}
	}
	return out
}
