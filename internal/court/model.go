package court

import "time"

type Court struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateCourtRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}
