// Package main seeds a local VideoTube database with demo channels, videos,
// subscriptions and watch history. Users are inserted through the same
// repositories the API uses; videos have no endpoint here so they are
// written directly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/repository/mongodb"
	"github.com/utafrali/VideoTubeGo/pkg/config"
	"github.com/utafrali/VideoTubeGo/pkg/database"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
	"github.com/utafrali/VideoTubeGo/pkg/logger"
)

type seedConfig struct {
	MongoURI   string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB    string `env:"MONGO_DB" envDefault:"videotube"`
	Password   string `env:"SEED_PASSWORD" envDefault:"password123"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

type userDef struct {
	username string
	email    string
	fullName string
}

type videoDef struct {
	owner       string
	title       string
	description string
	duration    float64
	views       int64
}

var demoUsers = []userDef{
	{username: "alice", email: "alice@videotube.local", fullName: "Alice Liddell"},
	{username: "bob", email: "bob@videotube.local", fullName: "Bob Builder"},
	{username: "carol", email: "carol@videotube.local", fullName: "Carol Danvers"},
}

var demoVideos = []videoDef{
	{owner: "alice", title: "Down the rabbit hole", description: "Channel trailer", duration: 94.5, views: 1520},
	{owner: "alice", title: "Tea party recap", description: "Highlights from the weekend", duration: 612, views: 310},
	{owner: "bob", title: "Framing a shed", description: "Part one of the backyard build", duration: 1840.2, views: 87},
	{owner: "carol", title: "Flight log #12", description: "Morning patrol", duration: 455, views: 4021},
}

// subscriber -> channels
var demoSubscriptions = map[string][]string{
	"bob":   {"alice", "carol"},
	"carol": {"alice"},
	"alice": {"carol"},
}

// viewer -> titles, oldest first
var demoHistory = map[string][]string{
	"bob":   {"Down the rabbit hole", "Flight log #12", "Tea party recap"},
	"alice": {"Framing a shed"},
}

func main() {
	cfg := &seedConfig{}
	if err := config.Load(cfg, ".env"); err != nil {
		slog.Error("failed to load seed config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("videotube-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *seedConfig, log *slog.Logger) error {
	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoURI
	mongoCfg.Database = cfg.MongoDB

	client, err := database.NewMongoClient(ctx, mongoCfg, nil, log)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDB)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	users := mongodb.NewUserRepository(db)
	videos := mongodb.NewVideoRepository(db)
	subscriptions := mongodb.NewSubscriptionRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Relationships are only seeded for users created in this run, so a
	// second run does not toggle subscriptions off again.
	ids := make(map[string]string, len(demoUsers))
	created := make(map[string]bool, len(demoUsers))
	for _, def := range demoUsers {
		u := &domain.User{
			Username:     def.username,
			Email:        def.email,
			FullName:     def.fullName,
			Avatar:       "https://picsum.photos/seed/" + def.username + "/200",
			CoverImage:   "https://picsum.photos/seed/" + def.username + "-cover/1200/300",
			PasswordHash: string(hash),
		}
		err := users.Create(ctx, u)
		switch {
		case err == nil:
			created[def.username] = true
			log.Info("user created", slog.String("username", u.Username), slog.String("user_id", u.ID))
		case errors.Is(err, apperrors.ErrAlreadyExists):
			existing, lookupErr := users.GetByUsername(ctx, def.username)
			if lookupErr != nil {
				return fmt.Errorf("lookup existing user %q: %w", def.username, lookupErr)
			}
			u = existing
			log.Info("user exists, skipping", slog.String("username", u.Username))
		default:
			return fmt.Errorf("create user %q: %w", def.username, err)
		}
		ids[def.username] = u.ID
	}

	videoIDs := make(map[string]string, len(demoVideos))
	for _, def := range demoVideos {
		if !created[def.owner] {
			continue
		}
		v := &domain.Video{
			VideoFile:   "https://videos.videotube.local/" + def.owner + "/" + fmt.Sprint(len(videoIDs)) + ".mp4",
			Thumbnail:   "https://picsum.photos/seed/" + def.owner + fmt.Sprint(len(videoIDs)) + "/640/360",
			Title:       def.title,
			Description: def.description,
			Duration:    def.duration,
			Views:       def.views,
			IsPublished: true,
			Owner:       ids[def.owner],
		}
		if err := videos.Create(ctx, v); err != nil {
			return fmt.Errorf("create video %q: %w", def.title, err)
		}
		videoIDs[def.title] = v.ID
		log.Info("video created", slog.String("title", v.Title), slog.String("video_id", v.ID))
	}

	for subscriber, channels := range demoSubscriptions {
		if !created[subscriber] {
			continue
		}
		for _, channel := range channels {
			subscribed, err := subscriptions.Toggle(ctx, ids[subscriber], ids[channel])
			if err != nil {
				return fmt.Errorf("subscribe %s to %s: %w", subscriber, channel, err)
			}
			log.Info("subscription seeded",
				slog.String("subscriber", subscriber),
				slog.String("channel", channel),
				slog.Bool("subscribed", subscribed),
			)
		}
	}

	for viewer, titles := range demoHistory {
		if !created[viewer] {
			continue
		}
		for _, title := range titles {
			videoID, ok := videoIDs[title]
			if !ok {
				log.Warn("video not seeded in this run, skipping history entry", slog.String("title", title))
				continue
			}
			if err := users.AppendWatchHistory(ctx, ids[viewer], videoID); err != nil {
				return fmt.Errorf("record watch for %s: %w", viewer, err)
			}
		}
	}

	log.Info("seed complete",
		slog.Int("users_created", len(created)),
		slog.Int("videos_created", len(videoIDs)),
	)
	return nil
}
