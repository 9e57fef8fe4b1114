package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when the primary key is still zero. Postgres
// also defaults the column, but setting it client side keeps the value known
// before the insert returns.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
