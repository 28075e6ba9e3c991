// Package domain defines location hints and their label associations
package domain

import "github.com/alexmarder/hloc/internal/core/codeindex"

// NaturalKey identifies a hint independent of the labels referencing it
type NaturalKey struct {
	LocationID int64
	Code       string
	Type       codeindex.CodeType
}

// Hint is a persisted candidate location for a code
type Hint struct {
	ID int64
	NaturalKey
}

// Association links a hint to a label
type Association struct {
	HintID  int64
	LabelID int64
}

// LabelHint is a hint as seen from one label
type LabelHint struct {
	HintID     int64              `json:"hint_id"`
	LocationID int64              `json:"location_id"`
	Code       string             `json:"code"`
	Type       codeindex.CodeType `json:"code_type"`
}
