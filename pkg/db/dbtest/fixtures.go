package dbtest

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// SeedPet inserts a dog owned by owner with a generated name and lorem
// description. mutate runs before the insert.
func SeedPet(t testing.TB, conn *gorm.DB, owner uuid.UUID, status enums.PetStatus, mutate ...func(*models.Pet)) *models.Pet {
	t.Helper()
	pet := &models.Pet{
		Name:        gofakeit.PetName(),
		Species:     "Dog",
		AgeYears:    gofakeit.Number(0, 14),
		Description: gofakeit.LoremIpsumSentence(8),
		Status:      status,
		CreatedBy:   owner,
	}
	for _, fn := range mutate {
		fn(pet)
	}
	if err := conn.Create(pet).Error; err != nil {
		t.Fatalf("failed to seed pet: %v", err)
	}
	return pet
}
