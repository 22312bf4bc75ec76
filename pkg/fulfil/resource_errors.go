package fulfil

import "fmt"

// ErrorKind groups recovered resource errors.
type ErrorKind string

const (
	ErrorKindUser          ErrorKind = "user"
	ErrorKindAuthorization ErrorKind = "authorization"
	ErrorKindSystem        ErrorKind = "system"
)

// ErrorEntry is one recovered error.
type ErrorEntry struct {
	Code    string    `json:"code"`
	Kind    ErrorKind `json:"type"`
	Message string    `json:"message"`
}

// String renders the entry for logs and the CLI.
func (e ErrorEntry) String() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

// Errors collects recovered errors of a resource. Entries are unique by code
// and kind.
type Errors struct {
	entries []ErrorEntry
}

// Add appends an entry unless one with the same code and kind exists.
func (e *Errors) Add(code string, kind ErrorKind, message string) {
	if e.Added(code, kind) {
		return
	}

	e.entries = append(e.entries, ErrorEntry{Code: code, Kind: kind, Message: message})
}

// AddEntry appends entry unless its code and kind are already present.
func (e *Errors) AddEntry(entry ErrorEntry) {
	e.Add(entry.Code, entry.Kind, entry.Message)
}

// Added reports whether an entry with code and kind exists.
func (e *Errors) Added(code string, kind ErrorKind) bool {
	for _, entry := range e.entries {
		if entry.Code == code && entry.Kind == kind {
			return true
		}
	}

	return false
}

// Clear removes every entry.
func (e *Errors) Clear() {
	e.entries = nil
}

// Entries returns a copy of the entries in insertion order.
func (e *Errors) Entries() []ErrorEntry {
	out := make([]ErrorEntry, len(e.entries))
	copy(out, e.entries)

	return out
}

// Messages returns the message of every entry.
func (e *Errors) Messages() []string {
	messages := make([]string, 0, len(e.entries))
	for _, entry := range e.entries {
		messages = append(messages, entry.Message)
	}

	return messages
}

// FullMessages returns the message of every entry.
func (e *Errors) FullMessages() []string {
	return e.Messages()
}

// Each calls fn for every entry in insertion order.
func (e *Errors) Each(fn func(ErrorEntry)) {
	for _, entry := range e.entries {
		fn(entry)
	}
}

// Len returns the number of entries.
func (e *Errors) Len() int {
	return len(e.entries)
}

// Empty reports whether there are no entries.
func (e *Errors) Empty() bool {
	return len(e.entries) == 0
}
