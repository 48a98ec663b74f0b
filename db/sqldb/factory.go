package sqldb

import (
	"fmt"
	"sync"
)

// ClientFactory constructs a Client from Conf. pw is the decrypted password;
// implementations fall back to Conf.PW when it is empty.
// It is registered with RegisterFactory and called by sqldb.New.
type ClientFactory func(conf *Conf, pw string) (Client, error)

var (
	factoriesMu sync.RWMutex
	registry    = map[string]ClientFactory{}
)

func RegisterFactory(dbType string, factory ClientFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	registry[dbType] = factory
}

func New(conf *Conf, pw string) (Client, error) {
	factoriesMu.RLock()
	factory, ok := registry[conf.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", conf.Type)
	}
	if pw == "" {
		pw = conf.PW
	}
	return factory(conf, pw)
}
