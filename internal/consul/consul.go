package consul

import (
	"fmt"
	"os"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the consul agent addressed by CONSUL_HTTP_ADDR, or
// the default local agent when unset.
func NewClient() (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		config.Address = addr
	}
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with consul so the gateway and
// sibling services can discover it.
func RegisterService(client *consulapi.Client, serviceName, serviceID, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering service %s: %w", serviceName, err)
	}
	return nil
}

// GetServiceAddress resolves one healthy instance of a collaborator service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("querying consul for %s: %w", serviceName, err)
	}
	if len(services) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of %s", serviceName)
	}

	service := services[0].Service
	address := service.Address
	if address == "" {
		address = services[0].Node.Address
	}
	return address, service.Port, nil
}
