package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ideasplace/internal/auth"
	"ideasplace/internal/config"
	"ideasplace/internal/db"
	"ideasplace/internal/model"
	"ideasplace/internal/repository"
	"ideasplace/internal/service"
)

// options controls how much demo data is created.
type options struct {
	Users        int
	IdeasPerUser int
	Password     string
	Seed         int64
}

// result counts what a seed run created.
type result struct {
	Users      int
	Skipped    int
	Ideas      int
	Likes      int64
	TotalUsers int
}

func main() {
	log.Println("Starting seed script...")

	opts := options{}
	flag.IntVar(&opts.Users, "users", 10, "Number of active demo users")
	flag.IntVar(&opts.IdeasPerUser, "ideas", 3, "Ideas published by each user")
	flag.StringVar(&opts.Password, "password", "demo-Password-1", "Password shared by all demo users")
	flag.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	res, err := seed(context.Background(), gormDB, opts)
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Users created: %d", res.Users)
	log.Printf("  - Existing usernames skipped: %d", res.Skipped)
	log.Printf("  - Ideas created: %d", res.Ideas)
	log.Printf("  - Like records on new ideas: %d", res.Likes)
	log.Printf("  - Total users in database: %d", res.TotalUsers)
	log.Printf("  - Demo password: %s", opts.Password)
}

// seed creates active users, their ideas, and a random spread of likes.
func seed(ctx context.Context, gormDB *gorm.DB, opts options) (result, error) {
	var res result

	faker := gofakeit.New(opts.Seed)
	rnd := rand.New(rand.NewSource(opts.Seed))

	hash, err := auth.HashPassword(opts.Password, bcrypt.DefaultCost)
	if err != nil {
		return res, fmt.Errorf("hash password: %w", err)
	}

	userRepo := repository.NewUserRepository(gormDB)
	ideaRepo := repository.NewIdeaRepository(gormDB)
	likeRepo := repository.NewLikeRepository(gormDB)
	ideas := service.NewIdeaService(ideaRepo, slog.Default())
	likes := service.NewLikeService(likeRepo, ideaRepo)

	users := make([]*model.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		person := faker.Person()
		username := fmt.Sprintf("%s.%s%d", slug(person.FirstName), slug(person.LastName), faker.Number(10, 9999))

		if _, err := userRepo.FindByUsername(ctx, username); err == nil {
			res.Skipped++
			continue
		}

		user := &model.User{
			Username:     username,
			Email:        username + "@" + faker.DomainName(),
			FirstName:    person.FirstName,
			LastName:     person.LastName,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return res, fmt.Errorf("create user %s: %w", username, err)
		}
		users = append(users, user)
		res.Users++
	}

	created := make([]*model.Idea, 0, len(users)*opts.IdeasPerUser)
	for _, user := range users {
		for j := 0; j < opts.IdeasPerUser; j++ {
			title := strings.TrimSuffix(faker.Sentence(5), ".")
			text := faker.Paragraph(1, 3, 12, "\n")
			idea, err := ideas.Create(ctx, user.ID, service.IdeaInput{Title: &title, Text: &text})
			if err != nil {
				return res, fmt.Errorf("create idea for %s: %w", user.Username, err)
			}
			created = append(created, idea)
			res.Ideas++
		}
	}

	for _, idea := range created {
		for _, user := range users {
			if rnd.Intn(2) == 0 {
				continue
			}
			isLike := rnd.Intn(3) > 0
			isUnlike := !isLike
			if _, err := likes.SetStatus(ctx, idea.ID, user.ID, service.LikeInput{IsLike: &isLike, IsUnlike: &isUnlike}); err != nil {
				return res, fmt.Errorf("like idea %d: %w", idea.ID, err)
			}
		}

		count, err := likeRepo.CountByIdea(ctx, idea.ID)
		if err != nil {
			return res, fmt.Errorf("count likes of idea %d: %w", idea.ID, err)
		}
		res.Likes += count
	}

	all, err := userRepo.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	res.TotalUsers = len(all)

	return res, nil
}

// slug lowercases s and keeps only ASCII letters and digits.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
