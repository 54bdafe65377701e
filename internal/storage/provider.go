package storage

// Provider abstracts vault file access so services can be tested against
// temporary directories.
type Provider interface {
	Root() string
	List(dir string) ([]string, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}
