package fileservice

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
)

// Module implements the upload collaborator using the fs-jetstream plugin.
type Module struct {
	storage *fsjetstream.PluginModule
	bucket  fsjetstream.FileStoragePort
	service *Service
	maxSize int64
	logger  types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module          = (*Module)(nil)
	_ mono.UsePluginModule = (*Module)(nil)
)

// NewModule creates a new file service module.
func NewModule(maxSize int64, logger types.Logger) *Module {
	return &Module{
		maxSize: maxSize,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "file-service"
}

// SetPlugin receives the storage plugin from the framework.
// This is called before Start() when the module implements UsePluginModule.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "storage" {
		storage, ok := plugin.(*fsjetstream.PluginModule)
		if !ok {
			m.logger.Error("Invalid plugin type for storage",
				"alias", alias,
				"expected", "*fsjetstream.PluginModule")
			return
		}
		m.storage = storage
		m.logger.Info("Received storage plugin", "alias", alias)
	}
}

// Start initializes the module and its service.
func (m *Module) Start(_ context.Context) error {
	if m.storage == nil {
		return fmt.Errorf("required plugin 'storage' not registered")
	}

	m.bucket = m.storage.Bucket("uploads")
	if m.bucket == nil {
		return fmt.Errorf("bucket 'uploads' not found in storage plugin")
	}

	m.service = NewService(m.bucket, m.maxSize)

	m.logger.Info("File service module started", "maxUploadSize", m.service.MaxSize())
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("File service module stopped")
	return nil
}

// Service returns the file service instance.
func (m *Module) Service() *Service {
	return m.service
}
