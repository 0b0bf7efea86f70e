package gormrepo

import (
	"context"
	"errors"
	"testing"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает мок базы данных для тестов
func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open gorm: %v", err)
	}

	return db, mock
}

func testUser() *models.User {
	return &models.User{
		LoginID:  "user01",
		Password: "$2a$10$hash",
		Name:     "Kim",
		Age:      30,
		Address:  "Seoul",
		PhoneNum: "010-1111-2222",
	}
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)
		user := testUser()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
			WithArgs(user.LoginID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"unique_num"}).AddRow(1))
		mock.ExpectCommit()

		if err := repo.Create(context.Background(), user); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if user.UniqueNum != 1 {
			t.Errorf("Expected unique_num 1, got %d", user.UniqueNum)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("DuplicateIdentifier", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)
		user := testUser()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
			WithArgs(user.LoginID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), user)
		if !errors.Is(err, apperrors.ErrDuplicateIdentifier) {
			t.Errorf("Expected ErrDuplicateIdentifier, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("InsertFails", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)
		user := testUser()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
			WithArgs(user.LoginID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), user)
		if err == nil || errors.Is(err, apperrors.ErrDuplicateIdentifier) {
			t.Errorf("Expected infrastructure error, got %v", err)
		}
	})
}

func TestUserRepository_GetByLoginID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		rows := sqlmock.NewRows([]string{"unique_num", "id", "password", "name", "age", "address", "phone_num"}).
			AddRow(7, "user01", "$2a$10$hash", "Kim", 30, "Seoul", "010-1111-2222")
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
			WithArgs("user01").
			WillReturnRows(rows)

		user, err := repo.GetByLoginID(context.Background(), "user01")
		if err != nil {
			t.Fatalf("GetByLoginID failed: %v", err)
		}
		if user.UniqueNum != 7 || user.Name != "Kim" || user.Age != 30 {
			t.Errorf("Unexpected user: %+v", user)
		}
		if user.Password != "$2a$10$hash" {
			t.Error("Expected password hash to be loaded")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"unique_num", "id"}))

		_, err := repo.GetByLoginID(context.Background(), "ghost")
		if !apperrors.IsNotFound(err) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})
}

func TestUserRepository_Exists(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
		WithArgs("user01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
		WithArgs("free").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.Exists(context.Background(), "user01")
	if err != nil || !exists {
		t.Errorf("Expected user01 to exist, got %v, %v", exists, err)
	}

	exists, err = repo.Exists(context.Background(), "free")
	if err != nil || exists {
		t.Errorf("Expected free to be available, got %v, %v", exists, err)
	}
}
