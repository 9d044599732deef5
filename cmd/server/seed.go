package main

import (
	"log"

	"github.com/google/uuid"

	"openshelf/pkg/models"
)

// seedDemoData creates a small catalog on first start so the app has
// something to show. Re-runs are no-ops.
func seedDemoData() {
	var count int64
	db.Model(&models.Library{}).Count(&count)
	if count > 0 {
		return
	}

	owner := models.User{
		UserUid: uuid.New().String(),
		Name:    "Maria Santos",
		Email:   "maria@example.com",
	}
	reader := models.User{
		UserUid: uuid.New().String(),
		Name:    "Jonas Weber",
		Email:   "jonas@example.com",
	}
	for _, u := range []*models.User{&owner, &reader} {
		if err := db.Create(u).Error; err != nil {
			log.Printf("Failed to seed user %s: %v", u.Name, err)
		}
	}

	library := models.Library{
		LibraryUid:  uuid.New().String(),
		Name:        "Riverside Little Library",
		Description: "Community bookshelf by the river park entrance",
		Location:    "Riverside Park, north gate",
		IsPublic:    true,
		OwnerUid:    owner.UserUid,
	}
	if err := db.Create(&library).Error; err != nil {
		log.Printf("Failed to seed library: %v", err)
		return
	}

	books := []models.Book{
		{
			BookUid:     uuid.New().String(),
			LibraryID:   library.ID,
			Title:       "The Name of the Wind",
			Author:      "Patrick Rothfuss",
			ISBN:        "9780756404741",
			Category:    "Fantasy",
			Publisher:   "DAW Books",
			PublishYear: 2007,
			Pages:       662,
			Language:    "en",
		},
		{
			BookUid:     uuid.New().String(),
			LibraryID:   library.ID,
			Title:       "Thinking, Fast and Slow",
			Author:      "Daniel Kahneman",
			ISBN:        "9780374533557",
			Category:    "Psychology",
			Publisher:   "FSG",
			PublishYear: 2011,
			Pages:       499,
			Language:    "en",
		},
	}
	copiesPerBook := []int{2, 1}
	for i := range books {
		if err := db.Create(&books[i]).Error; err != nil {
			log.Printf("Failed to seed book %s: %v", books[i].Title, err)
			continue
		}
		for j := 0; j < copiesPerBook[i]; j++ {
			c := models.Copy{CopyUid: uuid.New().String(), BookID: books[i].ID}
			if err := db.Create(&c).Error; err != nil {
				log.Printf("Failed to seed copy of %s: %v", books[i].Title, err)
			}
		}
	}
	log.Println("Demo data seeded")
}
