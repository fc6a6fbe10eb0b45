package sqlite

import (
	"os"
	"path/filepath"
	"time"

	"contatask/cmd/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func Init() (*gorm.DB, error) {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(".", "contatask.db")
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = Migrate(db)
	if err != nil {
		return nil, err
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates the schema for every persisted entity.
// Also used by tests against in-memory databases.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Setor{},
		&entity.Usuario{},
		&entity.Tributacao{},
		&entity.Empresa{},
		&entity.Tarefa{},
		&entity.TarefaTributacao{},
		&entity.VinculacaoEmpresaTributacao{},
		&entity.RelacionamentoTarefa{},
		&entity.Periodo{},
		&entity.Retificacao{},
		&entity.MudancaTributacaoPendente{},
	)
}
