// Package mocks provides testify mocks for the manager interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"contacts-server/internal/interfaces"
)

type MockDatabaseManager struct {
	mock.Mock
}

func (m *MockDatabaseManager) GetPool() interfaces.PgxPoolIface {
	args := m.Called()
	return args.Get(0).(interfaces.PgxPoolIface)
}
