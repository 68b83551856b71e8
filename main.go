package main

import (
	"context"
	"database/sql"
	"math"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"microblog/cache"
	"microblog/config"
	"microblog/search"
	"microblog/server"
	"microblog/storage"
	"microblog/storage/models"
	"microblog/utils"
)

func main() {
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		panic(err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	if err := storage.Migrate(db); err != nil {
		panic(err)
	}

	redisOptions := redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: "", // no password set
		DB:       0,  // use default DB
	}

	ctx := context.Background()
	index := search.NewRedisIndex(&redisOptions)
	if err := index.EnsureIndex(ctx, models.PostSearchKind, "body", "language"); err != nil {
		panic(err)
	}
	synchronizer := search.NewSynchronizer(index)
	usersCache := cache.NewUsersCache(&redisOptions)

	storageManager, err := storage.NewManager(db, synchronizer, usersCache, utils.NewLanguageDetector())
	if err != nil {
		panic(err)
	}

	// Backfill the search index from the system of record
	go utils.Recoverer(math.MaxInt, 1, func() {
		indexed, err := storageManager.ReindexPosts(ctx)
		if err != nil {
			log.Errorf("Error reindexing posts: %v", err)
			return
		}
		log.Infof("Reindexed %d posts", indexed)
	})

	s := server.NewServer(storageManager, cfg.PostsPerPage)
	s.Run(cfg.ServerPort)
}
