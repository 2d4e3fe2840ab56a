package domain

// Field constants for mapstructure and JSON standardization.
const (
	// ChangeUserInput is the change kind for setting one scalar user value.
	ChangeUserInput = "user-input"

	// KeyType, KeyProperty and KeyValue are the field names of a Change.
	KeyType     = "type"
	KeyProperty = "property"
	KeyValue    = "value"
)
