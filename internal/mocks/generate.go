// Package mocks provides gomock doubles for the hexagonal ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAuthAPI(ctrl)
//	api.EXPECT().Register(gomock.Any(), gomock.Any()).Return(env, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/sunstone-mind/sunstone-web/internal/ports AuthAPI
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/sunstone-mind/sunstone-web/internal/ports IdentityProvider
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_ledger_mock.go github.com/sunstone-mind/sunstone-web/internal/ports IdentityLedger
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_repository_mock.go github.com/sunstone-mind/sunstone-web/internal/ports SessionRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=checkin_repository_mock.go github.com/sunstone-mind/sunstone-web/internal/ports CheckInRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=journal_repository_mock.go github.com/sunstone-mind/sunstone-web/internal/ports JournalRepository
