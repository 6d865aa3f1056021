package practitioner

import (
	"log"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/schedulepro/server/cmd/models"
)

// starterRoster is the initial practitioner list loaded by the seed
// subcommand on a fresh database.
var starterRoster = []models.Practitioner{
	{
		FullName:    "Dr. Asha Mehta",
		Phone:       "9876543210",
		PhotoPath:   "/images/asha-mehta.png",
		Expertise:   pq.StringArray{"Anxiety", "Depression"},
		SessionMode: "Online & Offline",
		Gender:      "Female",
		Fee:         800,
	},
	{
		FullName:    "Dr. Rohan Iyer",
		Phone:       "9876501234",
		PhotoPath:   "/images/rohan-iyer.png",
		Expertise:   pq.StringArray{"Couples Therapy", "Stress Management"},
		SessionMode: "Online",
		Gender:      "Male",
		Fee:         1000,
	},
	{
		FullName:    "Dr. Sarah Thomas",
		Phone:       "9876512345",
		PhotoPath:   "/images/sarah-thomas.png",
		Expertise:   pq.StringArray{"Child Psychology", "ADHD"},
		SessionMode: "Offline",
		Gender:      "Female",
		Fee:         900,
	},
	{
		FullName:    "Dr. Vikram Shah",
		Phone:       "9876523456",
		PhotoPath:   "/images/vikram-shah.png",
		Expertise:   pq.StringArray{"Addiction", "Behavioural Therapy"},
		SessionMode: "Online & Offline",
		Gender:      "Male",
		Fee:         1200,
	},
}

// SeedPractitioners inserts the starter roster when the table is empty.
// Re-running the seed is a no-op.
func SeedPractitioners(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Practitioner{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Practitioners already seeded (%d rows), skipping", count)
		return nil
	}

	for _, p := range starterRoster {
		record := p
		if err := db.Create(&record).Error; err != nil {
			return err
		}
		log.Printf("Seeded practitioner %s", record.FullName)
	}
	return nil
}
