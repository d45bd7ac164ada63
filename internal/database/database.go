package database

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const embeddedPassword = "postgres"

// DB is the local store: logins, the activity log and costing chats.
// It owns the embedded postgres process when one was started.
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect opens the configured database. Localhost without a password runs
// an embedded server so a fresh checkout works with no setup.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres
	if usesEmbedded(cfg) {
		var err error
		embedded, err = startEmbedded(&cfg)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("🌐 Database: external PostgreSQL at %s:%s", cfg.Host, cfg.Port)
	}

	level := logger.Warn
	if cfg.LogSQL {
		level = logger.Info
	}
	gdb, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	log.Println("✅ Database connection established")
	return &DB{DB: gdb, embedded: embedded}, nil
}

func usesEmbedded(cfg config.DatabaseConfig) bool {
	return cfg.Host == "localhost" && cfg.Password == ""
}

func dsn(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
}

// startEmbedded boots the bundled server and points cfg at it
func startEmbedded(cfg *config.DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./pgdata"
	}
	if cfg.EmbeddedPort == 0 {
		cfg.EmbeddedPort = 5433
	}
	log.Printf("📦 Database: embedded PostgreSQL in %s", cfg.DataDir)

	stopOrphan(filepath.Join(cfg.DataDir, "postmaster.pid"))
	if err := waitForPortRelease(cfg.EmbeddedPort, 3*time.Second); err != nil {
		return nil, err
	}

	embedded := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(cfg.DataDir).
		Port(uint32(cfg.EmbeddedPort)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword))
	if err := embedded.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}

	cfg.Port = strconv.Itoa(cfg.EmbeddedPort)
	cfg.Password = embeddedPassword
	log.Printf("✅ Embedded PostgreSQL listening on %d", cfg.EmbeddedPort)
	return embedded, nil
}

// stopOrphan terminates a server left running by a crashed process and
// removes its pid file
func stopOrphan(pidFile string) {
	pid, ok := readPID(pidFile)
	if !ok {
		return
	}
	proc, err := os.FindProcess(pid)
	if err != nil || proc.Signal(syscall.Signal(0)) != nil {
		log.Printf("🧹 Removing stale %s (pid %d gone)", filepath.Base(pidFile), pid)
		_ = os.Remove(pidFile)
		return
	}

	log.Printf("⚠️  Stopping orphaned PostgreSQL (pid %d)", pid)
	_ = proc.Signal(syscall.SIGTERM)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(250 * time.Millisecond)
		if proc.Signal(syscall.Signal(0)) != nil {
			_ = os.Remove(pidFile)
			return
		}
	}
	_ = proc.Kill()
	_ = os.Remove(pidFile)
}

// readPID returns the pid on the first line of a postmaster.pid file
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	first, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func waitForPortRelease(port int, wait time.Duration) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	deadline := time.Now().Add(wait)
	for {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err != nil {
			return nil
		}
		conn.Close()
		if time.Now().After(deadline) {
			return fmt.Errorf("port %d is still in use by another process", port)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// Close shuts the pool and stops the embedded server if there is one
func (db *DB) Close() error {
	var closeErr error
	if sqlDB, err := db.DB.DB(); err != nil {
		closeErr = err
	} else {
		closeErr = sqlDB.Close()
	}
	if db.embedded != nil {
		log.Println("🛑 Stopping embedded PostgreSQL...")
		if err := db.embedded.Stop(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

// Migrate synchronizes the local tables: logins, the activity log and
// costing chat sessions. Everything else lives upstream.
func (db *DB) Migrate() error {
	return db.DB.AutoMigrate(
		&models.UserAuth{},
		&models.ActivityLog{},
		&models.ChatSession{},
		&models.ChatMessage{},
	)
}

// ActiveUsersWithUpstreamID returns enabled logins mapped to an upstream user
func (db *DB) ActiveUsersWithUpstreamID() ([]models.UserAuth, error) {
	var users []models.UserAuth
	err := db.Where("is_active = ? AND upstream_user_id > 0", true).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
