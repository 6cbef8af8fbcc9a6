package models

import "time"

// Purchase records one completed charge that granted a user access to a paid
// note. Free grants do not create purchase rows.
type Purchase struct {
	ID        int64     `db:"id" json:"id"`
	NoteID    int64     `db:"note_id" json:"noteId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Amount    float64   `db:"amount" json:"amount"`
	ChargeID  string    `db:"charge_id" json:"chargeId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
