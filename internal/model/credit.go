package model

import "time"

// Credit is a unit of value issued when a claim is approved. Amount is
// fixed at issuance; ownership transfer is a marketplace concern outside
// this core.
type Credit struct {
	ID       string    `json:"id"`
	ClaimID  string    `json:"claim_id"`
	OwnerID  string    `json:"owner_id"`
	Amount   float64   `json:"amount"`
	IssuedAt time.Time `json:"issued_at"`
}
