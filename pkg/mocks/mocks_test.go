package mocks

import (
	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/persistence"
)

var (
	_ persistence.Persistence = (*MockPersistence)(nil)
	_ eventbus.EventBus       = (*MockEventBus)(nil)
)
