package model

import "github.com/google/uuid"

type SourcingKind string

const (
	SourcingKindTender             SourcingKind = "tender"
	SourcingKindContract           SourcingKind = "contract"
	SourcingKindDirectAward        SourcingKind = "direct_award"
	SourcingKindInternalAssignment SourcingKind = "internal_assignment"
)

// SourcingMechanism is one active commitment found against a package.
type SourcingMechanism struct {
	Kind   SourcingKind `json:"kind"`
	ID     uuid.UUID    `json:"id"`
	Status string       `json:"status"`
}

type Compliance struct {
	OK      bool     `json:"ok"`
	Missing []string `json:"missing"`
}
