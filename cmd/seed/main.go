// Command main runs the database seeder for the blog API.
package main

import (
	"flag"
	"log"

	"techblog/internal/config"
	"techblog/internal/database"
	"techblog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	numComments := flag.Int("comments", 300, "Number of comments to create")
	maxDays := flag.Int("max-days", 90, "Spread created_at over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, %d comments, clean=%v\n",
		*numUsers, *numPosts, *numComments, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedUsers(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}

	posts, err := s.SeedPosts(users, *numPosts, *maxDays)
	if err != nil {
		log.Fatalf("Post seeding failed: %v", err)
	}

	if err := s.SeedComments(users, posts, *numComments); err != nil {
		log.Fatalf("Comment seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments (password for all users: %q)",
		len(users), len(posts), *numComments, seed.DefaultPassword)
}
