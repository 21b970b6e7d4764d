package llm

import (
	"fmt"
	"sync"

	"github.com/nulzo/cost-report/internal/config"
)

type Factory func(cfg config.LLMConfig) (Client, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a backend available under providerType. Adapters call it from init.
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("llm factory %s already registered", providerType))
	}
	factories[providerType] = f
}

func Get(providerType string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[providerType]
	if !ok {
		return nil, fmt.Errorf("llm factory not found for type: %s", providerType)
	}
	return f, nil
}

// New builds the client configured by cfg.Provider.
func New(cfg config.LLMConfig) (Client, error) {
	factoryFunc, err := Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return factoryFunc(cfg)
}
