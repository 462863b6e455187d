package steam

import "fmt"

// ConfigurationError reports that libraryfolders.vdf could not be read or
// does not have the expected shape. It is fatal to a run.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("library configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// MalformedRecordError reports an app manifest that could not be parsed or is
// missing a required attribute. The record is skipped and scanning continues.
type MalformedRecordError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed manifest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed manifest %s: %s", e.Path, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
