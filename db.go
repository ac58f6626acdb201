package waitlist

// Database is a storage backend that must be opened before use
type Database interface {
	Open() error
	Close() error
}
