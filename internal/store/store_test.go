package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "versedraft-store-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedBook(t *testing.T, db *DB) (*models.Project, *models.Book) {
	t.Helper()
	ctx := context.Background()
	p := &models.Project{Name: "Reina", SourceLanguage: "en", TargetLanguage: "es"}
	if err := db.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	b := &models.Book{ProjectID: p.ID, Code: "PSA", Name: "Psalms", SourcePath: "psa.usfm"}
	if err := db.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	return p, b
}

func text(s string) *string { return &s }

func TestRebind(t *testing.T) {
	db := &DB{dialect: dialectPostgres}
	if got := db.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}
	lite := &DB{dialect: dialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestProjectsAndBooks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p, b := seedBook(t, db)

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Reina" || got.TargetLanguage != "es" {
		t.Errorf("project = %+v", got)
	}
	if _, err := db.GetProject(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetProject(missing) err = %v, want ErrNotFound", err)
	}

	dup := &models.Book{ProjectID: p.ID, Code: "PSA", Name: "Again", SourcePath: "x.usfm"}
	if err := db.CreateBook(ctx, dup); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate book err = %v, want ErrAlreadyExists", err)
	}

	for _, name := range []string{"psalms", "psa", "PSALMS"} {
		found, err := db.FindBook(ctx, p.ID, name)
		if err != nil || found.ID != b.ID {
			t.Errorf("FindBook(%q) = %v, %v", name, found, err)
		}
	}
	if _, err := db.GetBook(ctx, p.ID, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetBook(nope) err = %v", err)
	}

	books, err := db.ListBooks(ctx, p.ID)
	if err != nil || len(books) != 1 {
		t.Fatalf("ListBooks = %v, %v", books, err)
	}
}

func TestTranslations_OrderAndActive(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p, b := seedBook(t, db)

	_, err := db.AddTranslations(ctx, []models.TranslationRecord{
		{ProjectID: p.ID, BookID: b.ID, Chapter: 3, Verse: 5, TranslatedText: text("A"), IsActive: true},
		{ProjectID: p.ID, BookID: b.ID, Chapter: 3, Verse: 5, TranslatedText: text("B"), IsActive: true},
		{ProjectID: p.ID, BookID: b.ID, Chapter: 3, Verse: 6, IsActive: true},
		{ProjectID: p.ID, BookID: b.ID, Chapter: 3, Verse: 7, TranslatedText: text("hidden"), IsActive: false},
	}, false)
	if err != nil {
		t.Fatalf("AddTranslations: %v", err)
	}
	_, err = db.AddTranslations(ctx, []models.TranslationRecord{
		{ProjectID: p.ID, BookID: b.ID, Chapter: 3, Verse: 5, TranslatedText: text("C"), IsActive: true, IsReviewed: true},
	}, false)
	if err != nil {
		t.Fatalf("AddTranslations: %v", err)
	}

	records, err := db.ListTranslations(ctx, p.ID, b.ID)
	if err != nil {
		t.Fatalf("ListTranslations: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4", len(records))
	}
	want := []string{"A", "B", "", "C"}
	for i, r := range records {
		if r.Text() != want[i] {
			t.Errorf("record %d text = %q, want %q", i, r.Text(), want[i])
		}
	}
	if records[2].TranslatedText != nil {
		t.Error("NULL text should scan as nil")
	}
	if !records[3].IsReviewed {
		t.Error("reviewed flag lost")
	}
}

func TestTranslations_ReplaceKeepsOneActive(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p, b := seedBook(t, db)

	for _, s := range []string{"first", "second", "third"} {
		if _, err := db.AddTranslations(ctx, []models.TranslationRecord{
			{ProjectID: p.ID, BookID: b.ID, Chapter: 1, Verse: 1, TranslatedText: text(s), IsActive: true},
		}, true); err != nil {
			t.Fatalf("AddTranslations: %v", err)
		}
	}
	records, _ := db.ListTranslations(ctx, p.ID, b.ID)
	if len(records) != 1 || records[0].Text() != "third" {
		t.Errorf("records = %+v, want only third", records)
	}
}

func TestDrafts_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p, b := seedBook(t, db)

	if _, err := db.FindLatestDraft(ctx, p.ID, &b.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("FindLatestDraft on empty err = %v", err)
	}

	now := time.Now().UTC()
	d := &models.Draft{
		ID: "d1", ProjectID: p.ID, BookID: &b.ID, Name: "Reina - Psalms", Content: "\\v 1 hola",
		Format: models.DraftFormat, ByteSize: 10, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateDraft(ctx, d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	project := &models.Draft{
		ID: "d2", ProjectID: p.ID, Name: "whole", Content: "x", Format: models.DraftFormat, ByteSize: 1,
		CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
	}
	if err := db.CreateDraft(ctx, project); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	named := &models.Draft{
		ID: "d3", ProjectID: p.ID, BookID: &b.ID, Scope: models.DraftScopeProject, Name: "Reina - Psalms - ts",
		Content: "y", Format: models.DraftFormat, ByteSize: 1,
		CreatedAt: now.Add(2 * time.Second), UpdatedAt: now.Add(2 * time.Second),
	}
	if err := db.CreateDraft(ctx, named); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	latest, err := db.FindLatestDraft(ctx, p.ID, &b.ID)
	if err != nil || latest.ID != "d1" {
		t.Fatalf("FindLatestDraft(book) = %v, %v", latest, err)
	}
	if latest.BookID == nil || *latest.BookID != b.ID || latest.Scope != models.DraftScopeBook {
		t.Errorf("latest = book %v scope %q", latest.BookID, latest.Scope)
	}
	whole, err := db.FindLatestDraft(ctx, p.ID, nil)
	if err != nil || whole.ID != "d2" || whole.BookID != nil || whole.Scope != models.DraftScopeProject {
		t.Errorf("FindLatestDraft(nil) = %+v, %v", whole, err)
	}

	later := now.Add(time.Minute)
	if err := db.UpdateDraft(ctx, "d1", "\\v 1 adiós", 12, later); err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	got, _ := db.GetDraft(ctx, "d1")
	if got.Content != "\\v 1 adiós" || got.ByteSize != 12 || !got.UpdatedAt.Equal(later) {
		t.Errorf("updated draft = %+v", got)
	}
	if err := db.UpdateDraft(ctx, "missing", "", 0, later); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("UpdateDraft(missing) err = %v", err)
	}

	list, err := db.ListDrafts(ctx, p.ID)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListDrafts = %v, %v", list, err)
	}
	if list[0].ID != "d3" || list[0].Content != "" {
		t.Errorf("list[0] = %+v, want d3 without content", list[0])
	}
}

func TestDrafts_IncrementDownloads(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p, _ := seedBook(t, db)

	now := time.Now().UTC()
	d := &models.Draft{ID: "dl", ProjectID: p.ID, Name: "n", Content: "c", Format: models.DraftFormat,
		ByteSize: 1, CreatedAt: now, UpdatedAt: now}
	if err := db.CreateDraft(ctx, d); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		got, err := db.IncrementDownloads(ctx, "dl")
		if err != nil {
			t.Fatalf("IncrementDownloads: %v", err)
		}
		if got.DownloadCount != int64(i) {
			t.Errorf("download count = %d, want %d", got.DownloadCount, i)
		}
		if got.Content != "c" {
			t.Errorf("content = %q", got.Content)
		}
	}
	if _, err := db.IncrementDownloads(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("IncrementDownloads(nope) err = %v", err)
	}
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := models.SourceMeta{Path: "psa.usfm", BookCode: "PSA", Checksum: "abc", LineCount: 3, UpdatedAt: time.Now().UTC()}
	if err := db.UpsertSource(ctx, m); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	m.Checksum = "def"
	if err := db.UpsertSource(ctx, m); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	sums, _ := db.SourceChecksums(ctx)
	if sums["psa.usfm"] != "def" {
		t.Errorf("checksum = %q, want def", sums["psa.usfm"])
	}
	list, _ := db.ListSources(ctx)
	if len(list) != 1 || list[0].BookCode != "PSA" {
		t.Errorf("sources = %+v", list)
	}
	if err := db.DeleteSource(ctx, "psa.usfm"); err != nil {
		t.Fatal(err)
	}
	sums, _ = db.SourceChecksums(ctx)
	if len(sums) != 0 {
		t.Errorf("sources after delete = %v", sums)
	}
}
