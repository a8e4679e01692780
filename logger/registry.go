package logger

import "sync"

// named holds loggers registered under a package name such as "bindkit.di".
var named sync.Map

// Register makes l the logger returned by Get(name). A nil l unregisters.
func Register(name string, l *Logger) {
	if l == nil {
		named.Delete(name)
		return
	}
	named.Store(name, l)
}

// Unregister removes the logger registered as name.
func Unregister(name string) {
	named.Delete(name)
}

// Get returns the logger registered as name or, failing that, the global
// logger tagged with name as its component.
func Get(name string) *Logger {
	if v, ok := named.Load(name); ok {
		return v.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}
