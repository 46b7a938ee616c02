package service

import (
	"database/sql"

	"github.com/iliyamo/repairhub/internal/memstore"
	"github.com/iliyamo/repairhub/internal/repository"
)

// SQLStores backs every port with the MySQL repositories.
func SQLStores(db *sql.DB) Stores {
	return Stores{
		Tasks:         repository.NewTaskRepo(db),
		TaskTypes:     repository.NewTaskTypeRepo(db),
		TaskImages:    repository.NewTaskImageRepo(db),
		Payments:      repository.NewPaymentRepo(db),
		Users:         repository.NewUserRepo(db),
		Technicians:   repository.NewTechnicianRepo(db),
		Registrations: repository.NewRegistrationRepo(db),
		Admins:        repository.NewAdminRepo(db),
		Reports:       repository.NewReportRepo(db),
	}
}

// MemoryStores backs every port with one in-memory store.
func MemoryStores(m *memstore.Store) Stores {
	return Stores{
		Tasks:         m.Tasks(),
		TaskTypes:     m.TaskTypes(),
		TaskImages:    m.TaskImages(),
		Payments:      m.Payments(),
		Users:         m.Users(),
		Technicians:   m.Technicians(),
		Registrations: m.Registrations(),
		Admins:        m.Admins(),
		Reports:       m.Reports(),
	}
}
