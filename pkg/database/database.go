package database

import (
	"fmt"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			sslMode,
		)
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func InitDB(cfg *config.DatabaseConfig, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates the simulation tables and rewrites legacy section spellings.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Prompt{},
		&model.Question{},
		&model.SimulationSession{},
		&model.SimulationHistory{},
	)
	if err != nil {
		return err
	}

	logger.Log.Info("Database migration completed")

	for legacy, canonical := range model.LegacyStoredValues() {
		for _, m := range []interface{}{&model.Question{}, &model.Prompt{}} {
			res := db.Model(m).Where("section = ?", legacy).Update("section", canonical)
			if res.Error != nil {
				return fmt.Errorf("normalize %q sections: %w", legacy, res.Error)
			}
			if res.RowsAffected > 0 {
				logger.Log.Info("Normalized legacy sections",
					zap.String("table", fmt.Sprintf("%T", m)),
					zap.String("from", legacy),
					zap.String("to", string(canonical)),
					zap.Int64("rows", res.RowsAffected),
				)
			}
		}
	}

	return nil
}
