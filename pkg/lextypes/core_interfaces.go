package lextypes

// Service defines the interface that registry-managed services implement.
// Services are registered by name and initialized once before the shell starts.
type Service interface {
	Name() string
	Initialize() error
}
