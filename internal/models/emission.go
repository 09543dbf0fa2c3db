package models

import "time"

// EmissionType is the set of instrument categories accepted on the
// update path. Storage keeps type as a plain string on purpose: the
// bulk import loads whatever the spreadsheet carries.
type EmissionType string

const (
	TypeCRI EmissionType = "CRI"
	TypeCRA EmissionType = "CRA"
	TypeDEB EmissionType = "DEB"
	TypeNC  EmissionType = "NC"
)

func (t EmissionType) Valid() bool {
	switch t {
	case TypeCRI, TypeCRA, TypeDEB, TypeNC:
		return true
	}
	return false
}

type Emission struct {
	ID        int64     `json:"id"`
	IssueDate time.Time `json:"issue_date"`
	Type      string    `json:"type"`
	Issuer    string    `json:"issuer"`
	Amount    float64   `json:"amount"`
	Link      *string   `json:"link"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
