package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStorageManager struct {
	mock.Mock
}

func (m *MockStorageManager) UploadAvatar(ctx context.Context, userID int64, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, userID, body, contentType)
	return args.String(0), args.Error(1)
}
