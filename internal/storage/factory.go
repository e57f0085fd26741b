package storage

import (
	"fmt"

	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/storage/badgerkv"
	"github.com/valentin-maty/arriendo/internal/storage/filekv"
	"github.com/valentin-maty/arriendo/internal/storage/memkv"
)

// NewKeyValueStore creates the key-value backend selected by config.
func NewKeyValueStore(logger *common.Logger, config *common.Config) (interfaces.KeyValueStore, error) {
	switch config.Storage.Backend {
	case "badger":
		return badgerkv.NewStore(logger, config.Storage.Path)
	case "file":
		return filekv.NewStore(logger, config.Storage.Path)
	case "memory":
		return memkv.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend '%s'", config.Storage.Backend)
	}
}
