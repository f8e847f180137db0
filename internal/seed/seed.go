// Package seed provides database seeding utilities for development and
// testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumGroups   int
	ShouldClean bool
}

var groupNames = []string{
	"General", "Movies", "Music", "Gaming", "Fitness", "Sports",
	"Technology", "Anime", "Books", "Food", "Travel", "Programming",
	"Linux", "Homelab", "Art", "Science", "Pets", "Finance",
}

// Seed populates the database with demo data: accounts with profiles,
// friend edges in both pending and accepted states, groups with
// memberships, and message history.
func Seed(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	log.Printf("Seeding database with %d users and %d groups...", opts.NumUsers, opts.NumGroups)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway")
		}
	}

	profiles, err := createProfiles(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(profiles))

	edges, err := createFriendEdges(db, profiles)
	if err != nil {
		return fmt.Errorf("failed to create friend edges: %w", err)
	}
	log.Printf("%d friend edges created", edges)

	groups, err := createGroups(db, profiles, opts.NumGroups)
	if err != nil {
		return fmt.Errorf("failed to create groups: %w", err)
	}
	log.Printf("%d groups created", len(groups))

	messages, err := createMessages(db, groups)
	if err != nil {
		return fmt.Errorf("failed to create messages: %w", err)
	}
	log.Printf("%d messages created", messages)

	log.Println("Database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	sql := `TRUNCATE TABLE messages, memberships, groups, friend_edges, profiles, accounts RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createProfiles(db *gorm.DB, count int) ([]models.Profile, error) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	profiles := make([]models.Profile, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) > 20 {
			username = username[:20]
		}
		if len(username) < 3 || !models.ValidUsername(username) {
			username = fmt.Sprintf("user%04d", i)
		}

		account := models.Account{
			Email:        fmt.Sprintf("%s%d@example.com", username, i),
			PasswordHash: string(hashedPassword),
		}
		if err := db.Create(&account).Error; err != nil {
			return nil, err
		}

		profile := models.Profile{
			ID:          account.ID,
			Username:    username,
			DisplayName: gofakeit.Name(),
			AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
			Theme:       models.DefaultTheme,
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func createFriendEdges(db *gorm.DB, profiles []models.Profile) (int, error) {
	if len(profiles) < 2 {
		return 0, nil
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	created := 0
	seen := make(map[[2]uint]bool)
	target := len(profiles) * 2
	for i := 0; i < target*4 && created < target; i++ {
		a := profiles[r.Intn(len(profiles))]
		b := profiles[r.Intn(len(profiles))]
		if a.ID == b.ID {
			continue
		}
		key := [2]uint{a.ID, b.ID}
		if a.ID > b.ID {
			key = [2]uint{b.ID, a.ID}
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		status := models.EdgeStatusAccepted
		if r.Intn(4) == 0 {
			status = models.EdgeStatusPending
		}
		edge := models.FriendEdge{RequesterID: a.ID, RecipientID: b.ID, Status: status}
		if err := db.Create(&edge).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func createGroups(db *gorm.DB, profiles []models.Profile, count int) ([]models.Group, error) {
	if count > len(groupNames) {
		count = len(groupNames)
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	groups := make([]models.Group, 0, count)
	for i := 0; i < count; i++ {
		owner := profiles[r.Intn(len(profiles))]
		group := models.Group{Name: groupNames[i], OwnerID: owner.ID}
		if err := db.Create(&group).Error; err != nil {
			return nil, err
		}

		memberships := []models.Membership{
			{GroupID: group.ID, UserID: owner.ID, Role: models.MembershipRoleOwner},
		}
		for _, p := range profiles {
			if p.ID != owner.ID && r.Intn(3) == 0 {
				memberships = append(memberships, models.Membership{
					GroupID: group.ID, UserID: p.ID, Role: models.MembershipRoleMember,
				})
			}
		}
		if err := db.Create(&memberships).Error; err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func createMessages(db *gorm.DB, groups []models.Group) (int, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	created := 0
	for _, group := range groups {
		var members []models.Membership
		if err := db.Where("group_id = ?", group.ID).Find(&members).Error; err != nil {
			return created, err
		}
		if len(members) == 0 {
			continue
		}

		n := 5 + r.Intn(25)
		for i := 0; i < n; i++ {
			sender := members[r.Intn(len(members))]
			message := models.Message{
				GroupID:   group.ID,
				SenderID:  sender.UserID,
				Content:   gofakeit.Sentence(4 + r.Intn(10)),
				CreatedAt: time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour),
			}
			if err := db.Create(&message).Error; err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}
