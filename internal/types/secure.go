package types

// SecretString wraps sensitive configuration values (API keys, connection
// strings) so they cannot leak through logging or fmt verbs. The raw value
// is only reachable through an explicit Reveal call.
type SecretString string

// String implements fmt.Stringer and always redacts.
func (s SecretString) String() string {
	return "[REDACTED]"
}

// GoString redacts %#v output as well.
func (s SecretString) GoString() string {
	return "[REDACTED]"
}

// MarshalJSON redacts the value in JSON output.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// Reveal returns the underlying secret value.
func (s SecretString) Reveal() string {
	return string(s)
}

// IsEmpty reports whether the secret is unset.
func (s SecretString) IsEmpty() bool {
	return len(s) == 0
}
