package db

// Script is a named Lua script. Drivers load it server-side on first use
// and call it by digest afterwards.
type Script struct {
	Name   string
	Source string
}

// NewScript creates a script. Name is only used in errors and logs.
func NewScript(name, source string) *Script {
	return &Script{Name: name, Source: source}
}
