package db

import (
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// AllModels lists every table owned by the engine, in migration order.
var AllModels = []any{
	&models.Organization{},
	&models.Building{},
	&models.Account{},
	&models.Meter{},
	&models.AllocationEdge{},
	&models.Formula{},
	&models.Reading{},
	&models.Run{},
	&models.Anomaly{},
}

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = common.GetLoggerWith(common.LoggerNameStore)
	once.Do(func() {
		conn, err := gorm.Open(dialector, &gorm.Config{
			NowFunc: func() time.Time { return time.Now().UTC() },
			Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		instance = &DB{Conn: conn}

		if dialector.Name() == "sqlite" {
			// one connection serializes writers instead of failing them with
			// SQLITE_BUSY, and keeps the shared in-memory database alive
			if sqlDB, err := instance.Conn.DB(); err == nil {
				sqlDB.SetMaxOpenConns(1)
			}
			if err := instance.Conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				log.Fatal("Failed to enable sqlite foreign key support", err)
			}
		}

		if err := instance.Conn.AutoMigrate(AllModels...); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		logger.Info("Database migration completed")

		if dialector.Name() == "sqlite" {
			if err := instance.Conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
				log.Fatal("Failed to set sqlite journal mode", err)
			}
		}
	})
	return instance
}

// Dialector picks the gorm dialector for the configured database type.
func Dialector(cfg common.Config) gorm.Dialector {
	switch cfg.DBType {
	case common.DBTypeMemory:
		return UseMemorySqliteDialector()
	case common.DBTypePostgres:
		return UsePostgresDialector(cfg.DBDSN)
	default:
		return UseSqliteDialector(cfg.DBPath)
	}
}

func UseSqliteDialector(dbPath string) gorm.Dialector {
	if dbPath == "" {
		var found bool
		if dbPath, found = os.LookupEnv(common.EnvKeyDBPath); !found {
			dbPath = "engine.db"
		}
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

// UsePostgresDialector opens postgres through the pgx stdlib driver.
func UsePostgresDialector(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{DSN: dsn})
}
