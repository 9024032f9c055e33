package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateMarshalsAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	msg := Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		SenderType:     SenderUser,
		Content:        "my invoice is wrong",
		CreatedAt:      time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(
			msg.ID,
			msg.ConversationID,
			msg.SenderType,
			msg.Content,
			nil, // analysis
			msg.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), msg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "sender_type", "content", "analysis", "created_at"}).
		AddRow("msg-1", "conv-1", SenderUser, "hello", `{"analysis_source":"llm"}`, now)
	mock.ExpectQuery("SELECT (.+) FROM messages").WithArgs("msg-1").WillReturnRows(rows)

	msg, err := repo.GetByID(context.Background(), "msg-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if msg.Analysis["analysis_source"] != "llm" {
		t.Errorf("analysis_source = %v, want llm", msg.Analysis["analysis_source"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateAnalysisNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE messages SET analysis").
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateAnalysis(context.Background(), "missing", map[string]any{"analysis_source": "llm"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateAnalysis = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListUnanalyzedAppliesLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "sender_type", "content", "analysis", "created_at"}).
		AddRow("msg-2", "conv-1", SenderUser, "newer", nil, now).
		AddRow("msg-1", "conv-1", SenderUser, "older", nil, now.Add(-time.Minute))
	mock.ExpectQuery("SELECT (.+) FROM messages").WithArgs(2).WillReturnRows(rows)

	msgs, err := repo.ListUnanalyzed(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListUnanalyzed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "msg-2" {
		t.Errorf("unexpected result %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
