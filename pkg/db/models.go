package db

import (
	"encoding/json"
	"time"
)

// GlobalScope is the scope value of settings that apply to every project.
const GlobalScope = ""

// Setting represents a row in the settings table.
type Setting struct {
	Namespace  string          `json:"namespace"`
	Scope      string          `json:"scope"`
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	Revision   int             `json:"revision"`
	Created    time.Time       `json:"created"`
	Modified   time.Time       `json:"modified"`
	ModifiedBy string          `json:"modified_by"`
}

// IsGlobal reports whether the setting applies to every project.
func (s *Setting) IsGlobal() bool {
	return s.Scope == GlobalScope
}
