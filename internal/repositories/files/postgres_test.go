package files

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nextmavens/filestore/internal/domain"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPostgresRepository(db), mock
}

func fileColumnsList() []string {
	return []string{"id", "project_id", "file_path", "file_name", "file_size", "content_type", "backend", "backend_file_id", "file_url", "etag", "metadata", "uploaded_at"}
}

func TestCreateUpsertsOnLogicalPath(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	uploadedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+storage_files\b.*ON\s+CONFLICT\s*\(file_path\)\s*DO\s+UPDATE\s+SET\b.*RETURNING`).
		WithArgs("rec_1", int64(7), "acme:/docs/report.pdf", "report.pdf", int64(4096),
			"application/pdf", "telegram", "f_123", "https://cdn.example.com/f_123",
			"etag-1", []byte(`{"source":"api"}`), uploadedAt).
		WillReturnRows(sqlmock.NewRows(fileColumnsList()).
			AddRow("rec_1", int64(7), "acme:/docs/report.pdf", "report.pdf", int64(4096),
				"application/pdf", "telegram", "f_123", "https://cdn.example.com/f_123",
				"etag-1", []byte(`{"source":"api"}`), uploadedAt))

	stored, err := repo.Create(context.Background(), &domain.StorageFile{
		ID:            "rec_1",
		ProjectID:     7,
		FilePath:      "acme:/docs/report.pdf",
		FileName:      "report.pdf",
		FileSize:      4096,
		ContentType:   "application/pdf",
		Backend:       domain.BackendTelegram,
		BackendFileID: "f_123",
		FileURL:       "https://cdn.example.com/f_123",
		ETag:          "etag-1",
		Metadata:      map[string]interface{}{"source": "api"},
		UploadedAt:    uploadedAt,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if stored.ID != "rec_1" {
		t.Errorf("ID = %q, want rec_1", stored.ID)
	}
	if stored.Backend != domain.BackendTelegram {
		t.Errorf("Backend = %q", stored.Backend)
	}
	if stored.Metadata["source"] != "api" {
		t.Errorf("Metadata = %v", stored.Metadata)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByPathReturnsNilWhenMissing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+storage_files\s+WHERE\s+file_path\s*=\s*\$1`).
		WithArgs("acme:/missing.txt").
		WillReturnRows(sqlmock.NewRows(fileColumnsList()))

	file, err := repo.GetByPath(context.Background(), "acme:/missing.txt")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if file != nil {
		t.Errorf("file = %+v, want nil", file)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByPath(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	uploadedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+storage_files\s+WHERE\s+file_path\s*=\s*\$1`).
		WithArgs("acme:/docs/report.pdf").
		WillReturnRows(sqlmock.NewRows(fileColumnsList()).
			AddRow("rec_1", int64(7), "acme:/docs/report.pdf", "report.pdf", int64(4096),
				"application/pdf", "cloudinary", "acme/docs/rep", "https://res.example.com/rep",
				"", []byte(`{}`), uploadedAt))

	file, err := repo.GetByPath(context.Background(), "acme:/docs/report.pdf")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if file == nil {
		t.Fatal("file = nil, want record")
	}
	if file.Backend != domain.BackendCloudinary {
		t.Errorf("Backend = %q", file.Backend)
	}
	if !file.UploadedAt.Equal(uploadedAt) {
		t.Errorf("UploadedAt = %v", file.UploadedAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByProjectOrdersNewestFirst(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*WHERE\s+project_id\s*=\s*\$1\s+ORDER\s+BY\s+uploaded_at\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3`).
		WithArgs(int64(7), 50, 0).
		WillReturnRows(sqlmock.NewRows(fileColumnsList()).
			AddRow("rec_2", int64(7), "acme:/b.txt", "b.txt", int64(2), "text/plain", "telegram", "f_2", "", "", []byte(`{}`), newer).
			AddRow("rec_1", int64(7), "acme:/a.txt", "a.txt", int64(1), "text/plain", "telegram", "f_1", "", "", []byte(`{}`), older))

	result, err := repo.ListByProject(context.Background(), domain.ListByProjectParams{ProjectID: 7, Limit: 50, Offset: 0})
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len = %d, want 2", len(result))
	}
	if result[0].ID != "rec_2" || result[1].ID != "rec_1" {
		t.Errorf("order = %s, %s", result[0].ID, result[1].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByPathPrefixEscapesWildcards(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*file_path\s+LIKE\s+\$2\s+ESCAPE`).
		WithArgs(int64(7), `acme:/docs/100\%\_final%`, 50).
		WillReturnRows(sqlmock.NewRows(fileColumnsList()))

	_, err := repo.ListByPathPrefix(context.Background(), domain.ListByPathPrefixParams{
		ProjectID: 7,
		Prefix:    "acme:/docs/100%_final",
		Limit:     50,
	})
	if err != nil {
		t.Fatalf("ListByPathPrefix: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateMetadataMergesKeys(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	uploadedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^\s*UPDATE\s+storage_files\s+SET\s+metadata\s*=\s*metadata\s*\|\|\s*\$2::jsonb\s+WHERE\s+file_path\s*=\s*\$1\s+RETURNING`).
		WithArgs("acme:/docs/report.pdf", []byte(`{"reviewed":true}`)).
		WillReturnRows(sqlmock.NewRows(fileColumnsList()).
			AddRow("rec_1", int64(7), "acme:/docs/report.pdf", "report.pdf", int64(4096),
				"application/pdf", "telegram", "f_123", "", "", []byte(`{"reviewed":true,"source":"api"}`), uploadedAt))

	file, err := repo.UpdateMetadata(context.Background(), "acme:/docs/report.pdf", map[string]interface{}{"reviewed": true})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if file == nil {
		t.Fatal("file = nil")
	}
	if file.Metadata["reviewed"] != true || file.Metadata["source"] != "api" {
		t.Errorf("Metadata = %v", file.Metadata)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateMetadataReturnsNilWhenMissing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*UPDATE\s+storage_files\s+SET\s+metadata`).
		WithArgs("acme:/missing.txt", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows(fileColumnsList()))

	file, err := repo.UpdateMetadata(context.Background(), "acme:/missing.txt", nil)
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if file != nil {
		t.Errorf("file = %+v, want nil", file)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE\s+FROM\s+storage_files\s+WHERE\s+file_path\s*=\s*\$1$`).
		WithArgs("acme:/docs/report.pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))

	existed, err := repo.Delete(context.Background(), "acme:/docs/report.pdf")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !existed {
		t.Error("existed = false, want true")
	}

	mock.ExpectExec(`^DELETE\s+FROM\s+storage_files\s+WHERE\s+file_path\s*=\s*\$1$`).
		WithArgs("acme:/docs/report.pdf").
		WillReturnResult(sqlmock.NewResult(0, 0))

	existed, err = repo.Delete(context.Background(), "acme:/docs/report.pdf")
	if err != nil {
		t.Fatalf("Delete (repeat): %v", err)
	}
	if existed {
		t.Error("existed = true on repeat delete, want false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteAllForProject(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE\s+FROM\s+storage_files\s+WHERE\s+project_id\s*=\s*\$1$`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteAllForProject(context.Background(), 7)
	if err != nil {
		t.Fatalf("DeleteAllForProject: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUsageByBackend(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FILTER\s*\(WHERE\s+backend\s*=\s*'telegram'\).*FILTER\s*\(WHERE\s+backend\s*=\s*'cloudinary'\)`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"telegram", "cloudinary", "total"}).AddRow(int64(3000), int64(500), int64(3500)))

	usage, err := repo.UsageByBackend(context.Background(), 7)
	if err != nil {
		t.Fatalf("UsageByBackend: %v", err)
	}
	if usage.Telegram != 3000 || usage.Cloudinary != 500 || usage.Total != 3500 {
		t.Errorf("usage = %+v", usage)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStats(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*COUNT\(\*\).*FROM\s+storage_files\s+WHERE\s+project_id\s*=\s*\$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "count", "tg_bytes", "tg_count", "cl_bytes", "cl_count", "largest_name", "largest_size", "largest_backend"}).
			AddRow(int64(5000), int64(4), int64(4400), int64(2), int64(600), int64(2), "video.mp4", int64(4000), "telegram"))

	stats, err := repo.Stats(context.Background(), 7)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalBytes != 5000 || stats.FileCount != 4 {
		t.Errorf("totals = %d/%d", stats.TotalBytes, stats.FileCount)
	}
	if stats.AverageSize != 1250 {
		t.Errorf("AverageSize = %v, want 1250", stats.AverageSize)
	}
	if stats.Backends.Telegram.Bytes != 4400 || stats.Backends.Cloudinary.Count != 2 {
		t.Errorf("backends = %+v", stats.Backends)
	}
	if stats.LargestFile == nil || stats.LargestFile.FileName != "video.mp4" || stats.LargestFile.Backend != domain.BackendTelegram {
		t.Errorf("LargestFile = %+v", stats.LargestFile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStatsEmptyProject(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+storage_files\s+WHERE\s+project_id\s*=\s*\$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "count", "tg_bytes", "tg_count", "cl_bytes", "cl_count", "largest_name", "largest_size", "largest_backend"}).
			AddRow(int64(0), int64(0), int64(0), int64(0), int64(0), int64(0), nil, nil, nil))

	stats, err := repo.Stats(context.Background(), 9)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalBytes != 0 || stats.FileCount != 0 {
		t.Errorf("totals = %d/%d", stats.TotalBytes, stats.FileCount)
	}
	if stats.LargestFile != nil {
		t.Errorf("LargestFile = %+v, want nil", stats.LargestFile)
	}
	if stats.AverageSize != 0 {
		t.Errorf("AverageSize = %v, want 0", stats.AverageSize)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
