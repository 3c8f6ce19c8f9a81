package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

var seedInterests = []string{
	"games", "flirt", "adult", "anime", "talk",
	"music", "movies", "travel", "photo", "sport",
}

// SeedTestData resets the database and populates it with demo users,
// profiles, likes and a couple of chats.
//
// Behavior:
//  1. Clears all domain tables.
//  2. Creates 20 registered users with 2-3 random interests each.
//  3. Publishes an active profile for every other user.
//  4. Sprinkles likes over the profiles, keeping the counter in lock-step.
//
// Compatible with both MySQL and SQLite (sequence reset differs).
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{"messages", "chats", "likes", "profile_media", "profiles", "reports", "blocks", "users"}
	for _, tbl := range tables {
		if err := database.Exec("DELETE FROM " + tbl).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", tbl, err)
		}
	}

	switch database.Dialector.Name() {
	case "mysql":
		database.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
		database.Exec("ALTER TABLE chats AUTO_INCREMENT = 1")
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence WHERE name IN ('profiles','chats','messages','reports')")
	}

	log.Println("Cleared existing data")

	genders := []string{"male", "female"}
	var users []User
	for i := 1; i <= 20; i++ {
		n := 2 + r.Intn(2)
		picked := map[string]bool{}
		interests := ""
		for len(picked) < n {
			k := seedInterests[r.Intn(len(seedInterests))]
			if !picked[k] {
				picked[k] = true
				if interests != "" {
					interests += ","
				}
				interests += k
			}
		}
		users = append(users, User{
			ID:           int64(1000 + i),
			Username:     fmt.Sprintf("user%d", i),
			Name:         fmt.Sprintf("User %d", i),
			Age:          18 + r.Intn(20),
			Gender:       genders[i%2],
			Interests:    interests,
			SearchGender: "any",
			Registered:   true,
		})
	}
	if err := database.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	var profiles []Profile
	for i, u := range users {
		if i%2 != 0 {
			continue
		}
		profiles = append(profiles, Profile{
			UserID:      u.ID,
			Description: fmt.Sprintf("Hey, I'm %s. Say hi!", u.Name),
			Active:      true,
		})
	}
	if err := database.Create(&profiles).Error; err != nil {
		return fmt.Errorf("failed to seed profiles: %w", err)
	}

	for _, p := range profiles {
		likers := r.Intn(4)
		for j := 0; j < likers; j++ {
			liker := users[r.Intn(len(users))]
			if liker.ID == p.UserID {
				continue
			}
			res := database.Create(&Like{ProfileID: p.ID, LikerID: liker.ID})
			if res.Error == nil {
				database.Model(&Profile{}).Where("id = ?", p.ID).
					Update("likes", gorm.Expr("likes + 1"))
			}
		}
	}

	log.Printf("Seeded %d users, %d profiles", len(users), len(profiles))
	return nil
}
