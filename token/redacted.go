package token

// Redacted wraps a secret so it cannot leak through fmt, zerolog or JSON.
// Value is the only way to read it back.
type Redacted struct {
	value string
}

func NewRedacted(value string) Redacted {
	return Redacted{value: value}
}

// Value returns the secret. Only pass the result to a signer or a store.
func (r Redacted) Value() string {
	return r.value
}

func (r Redacted) IsEmpty() bool {
	return r.value == ""
}

func (r Redacted) String() string {
	return "[REDACTED]"
}

func (r Redacted) GoString() string {
	return "token.Redacted{[REDACTED]}"
}

func (r Redacted) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

func (r Redacted) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
