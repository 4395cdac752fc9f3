package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/versedraft/internal/draftservice"
	"github.com/starford/versedraft/internal/models"
	"github.com/starford/versedraft/internal/testutil"
)

type fixture struct {
	srv     *Server
	svc     *draftservice.Service
	project *models.Project
	book    *models.Book
}

func testServer(t *testing.T) *fixture {
	t.Helper()
	vaultDir, vault := testutil.TestVault(t)
	testutil.WriteSource(t, vaultDir, "psa.usfm", testutil.Psalm1)

	svc, err := draftservice.New(testutil.TestDB(t), vault)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "Reina", "en", "es")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.CreateBook(ctx, p.ID, "psa.usfm", "")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{srv: New(svc, "test"), svc: svc, project: p, book: b}
}

func (f *fixture) translate(t *testing.T, chapter, verse int, text string) {
	t.Helper()
	_, err := f.svc.AddTranslations(context.Background(), f.project.ID, f.book.ID, []models.TranslationRecord{
		{Chapter: chapter, Verse: verse, TranslatedText: &text, IsActive: true},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_books":
		result, err = srv.listBooks(ctx, req)
	case "generate_book_draft":
		result, err = srv.generateBookDraft(ctx, req)
	case "generate_project_draft":
		result, err = srv.generateProjectDraft(ctx, req)
	case "read_draft":
		result, err = srv.readDraft(ctx, req)
	case "list_drafts":
		result, err = srv.listDrafts(ctx, req)
	case "get_markup_contract":
		result, err = srv.getMarkupContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListBooks(t *testing.T) {
	f := testServer(t)
	r := callTool(t, f.srv, "list_books", map[string]any{"project_id": f.project.ID})
	var books []models.Book
	if err := json.Unmarshal([]byte(resultText(r)), &books); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if len(books) != 1 || books[0].Code != "PSA" {
		t.Errorf("books = %+v", books)
	}
}

func TestGenerateAndReadBookDraft(t *testing.T) {
	f := testServer(t)
	f.translate(t, 1, 2, "pero en la ley de Jehová está su delicia")

	r := callTool(t, f.srv, "generate_book_draft", map[string]any{
		"project_id": f.project.ID,
		"book_id":    f.book.ID,
	})
	if r.IsError {
		t.Fatalf("generate error: %s", resultText(r))
	}
	var d models.Draft
	if err := json.Unmarshal([]byte(resultText(r)), &d); err != nil {
		t.Fatal(err)
	}
	if d.Content != "" || d.ByteSize == 0 {
		t.Errorf("tool result should carry metadata only: %+v", d)
	}

	r = callTool(t, f.srv, "read_draft", map[string]any{"draft_id": d.ID})
	if !strings.Contains(resultText(r), `\v 2 pero en la ley de Jehová está su delicia`) {
		t.Errorf("read_draft = %q", resultText(r))
	}

	r = callTool(t, f.srv, "list_drafts", map[string]any{"project_id": f.project.ID})
	if !strings.Contains(resultText(r), d.ID) {
		t.Errorf("list_drafts missing %s: %q", d.ID, resultText(r))
	}
}

func TestGenerateProjectDraft(t *testing.T) {
	f := testServer(t)
	f.translate(t, 1, 2, "pero en la ley de Jehová está su delicia")

	r := callTool(t, f.srv, "generate_project_draft", map[string]any{"project_id": f.project.ID, "book_name": "Psalms"})
	if r.IsError {
		t.Fatalf("generate error: %s", resultText(r))
	}
	r2 := callTool(t, f.srv, "generate_project_draft", map[string]any{"project_id": f.project.ID})
	if r2.IsError {
		t.Fatalf("generate error: %s", resultText(r2))
	}
	if resultText(r) == resultText(r2) {
		t.Error("project drafts should be distinct")
	}
}

func TestNoTranslatableContent(t *testing.T) {
	f := testServer(t)
	r := callTool(t, f.srv, "generate_book_draft", map[string]any{
		"project_id": f.project.ID,
		"book_id":    f.book.ID,
	})
	if !r.IsError || !strings.Contains(resultText(r), "no translatable content") {
		t.Errorf("result = %q, want no translatable content error", resultText(r))
	}
}

func TestMissingArgumentsAndIDs(t *testing.T) {
	f := testServer(t)
	if r := callTool(t, f.srv, "read_draft", map[string]any{}); !r.IsError {
		t.Error("expected error for missing draft_id")
	}
	if r := callTool(t, f.srv, "read_draft", map[string]any{"draft_id": "nope"}); !r.IsError {
		t.Error("expected error for unknown draft")
	}
	if r := callTool(t, f.srv, "list_books", map[string]any{"project_id": "nope"}); !r.IsError {
		t.Error("expected error for unknown project")
	}
	r := callTool(t, f.srv, "list_drafts", map[string]any{"project_id": f.project.ID})
	if r.IsError || !strings.HasPrefix(resultText(r), "no drafts") {
		t.Errorf("empty list_drafts = %q", resultText(r))
	}
}

func TestMarkupContract(t *testing.T) {
	f := testServer(t)
	r := callTool(t, f.srv, "get_markup_contract", nil)
	if !strings.Contains(resultText(r), "word position") {
		t.Error("contract should describe positional tag placement")
	}

	contents, err := f.srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != contractURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
