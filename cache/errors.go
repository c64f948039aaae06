package cache

import "fmt"

// ConfigurationError reports a cache configuration that cannot be built.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func newConfigurationError(field string, value int, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid cache configuration: %s=%d %s",
		e.Field, e.Value, e.Reason)
}

// InvalidAddressError reports an address outside the 32-bit address space.
type InvalidAddressError struct {
	Addr uint64
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address 0x%X: exceeds %d bits", e.Addr, AddressBits)
}
