package models

// All lists every persisted model. Tests migrate an in-memory database from it.
func All() []any {
	return []any{
		&Address{},
		&Pet{},
		&Adoption{},
		&Donation{},
		&DonationPhoto{},
		&LostReport{},
		&ViewStatistic{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
