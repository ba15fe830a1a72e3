package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connections
type DB struct {
	Relational *gorm.DB
	Mongo      *mongo.Client
	// TxOptions is the isolation every service transaction runs at.
	TxOptions *sql.TxOptions
	logger    *zap.Logger
}

// InitDB opens the relational store selected by DB_DRIVER and the MongoDB
// media registry.
func InitDB(cfg *Config, logger *zap.Logger) (*DB, error) {
	db, err := InitRelational(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MongoURI == "" {
		db.CloseDB()
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}
	mongoClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db.Mongo = mongoClient
	logger.Info("connected to MongoDB")

	return db, nil
}

// InitRelational opens only the relational store. Used by tools that never
// touch the media registry.
func InitRelational(cfg *Config, logger *zap.Logger) (*DB, error) {
	db := &DB{logger: logger}
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresConnStr == "" {
			return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		pg, err := initPostgres(cfg.PostgresConnStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		db.Relational = pg
		db.TxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}
		logger.Info("connected to PostgreSQL")
	case "sqlite":
		lite, err := initSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite at %s: %w", cfg.SQLitePath, err)
		}
		db.Relational = lite
		logger.Info("opened SQLite", zap.String("path", cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// initSQLite opens a file-backed database. SQLite has one writer, so the
// pool is capped at one connection.
func initSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Relational != nil {
		sqlDB, err := db.Relational.DB()
		if err != nil {
			db.logger.Warn("error getting SQL DB from GORM", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			db.logger.Warn("error closing relational connection", zap.Error(err))
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Warn("error closing MongoDB connection", zap.Error(err))
		}
	}
}
