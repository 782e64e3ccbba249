package vault

import (
	"context"
	"errors"
	"testing"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/domain/services"
	serviceAuth "rotavault/internal/service/auth"
)

// memNoteRepo backs the case-note service tests; the trash-facing LeafStore
// side is unused here and satisfied by the embedded memLeafStore.
type memNoteRepo struct {
	*memLeafStore
	notes map[string]*models.CaseNote
	next  int
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{memLeafStore: newMemLeafStore("case"), notes: make(map[string]*models.CaseNote)}
}

func (r *memNoteRepo) addNote(n models.CaseNote) *models.CaseNote {
	if n.ID == "" {
		r.next++
		n.ID = noteID(r.next)
	}
	stored := n
	r.notes[stored.ID] = &stored
	r.memLeafStore.add(stored.AsLeaf())
	return &stored
}

func noteID(n int) string {
	return "note-" + string(rune('0'+n))
}

func (r *memNoteRepo) Create(ctx context.Context, note *models.CaseNote) error {
	r.next++
	note.ID = noteID(r.next)
	stored := *note
	r.notes[note.ID] = &stored
	r.memLeafStore.add(stored.AsLeaf())
	return nil
}

func (r *memNoteRepo) GetByID(ctx context.Context, id string) (*models.CaseNote, error) {
	n, ok := r.notes[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "case note not found"}
	}
	copied := *n
	return &copied, nil
}

func (r *memNoteRepo) Update(ctx context.Context, note *models.CaseNote) error {
	stored := *note
	r.notes[note.ID] = &stored
	return nil
}

func (r *memNoteRepo) ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.CaseNote, error) {
	var out []models.CaseNote
	for _, n := range r.notes {
		if n.DeletedAt != nil || !(n.OwnerID == ownerID || n.Shared) {
			continue
		}
		if samePointerValue(n.FolderID, folderID) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *memNoteRepo) ListVisible(ctx context.Context, ownerID string) ([]models.CaseNote, error) {
	var out []models.CaseNote
	for _, n := range r.notes {
		if n.DeletedAt == nil && (n.OwnerID == ownerID || n.Shared) {
			out = append(out, *n)
		}
	}
	return out, nil
}

var _ repositories.CaseNoteRepository = (*memNoteRepo)(nil)

type noteFixture struct {
	folders *memFolderRepo
	notes   *memNoteRepo
	svc     services.CaseNoteService
}

func newNoteFixture(t *testing.T) *noteFixture {
	t.Helper()
	folders := newMemFolderRepo()
	notes := newMemNoteRepo()
	svc := NewCaseNoteService(notes, folders, serviceAuth.NewScopedAuthorizer(), discardLogger())
	return &noteFixture{folders: folders, notes: notes, svc: svc}
}

func TestCreateNote(t *testing.T) {
	f := newNoteFixture(t)
	f.folders.add(models.Folder{ID: "cardio", Name: "cardio", OwnerID: "u1"})

	note, err := f.svc.CreateNote(context.Background(), &services.CreateCaseNoteRequest{
		Title:     "  STEMI admission  ",
		Specialty: "cardiology",
		Body:      "72F presenting with chest pain",
		FolderID:  ptr("cardio"),
		OwnerID:   "u1",
	})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if note.Title != "STEMI admission" {
		t.Errorf("title = %q, want trimmed", note.Title)
	}
	if note.ID == "" {
		t.Error("note not assigned an id")
	}
}

func TestCreateNote_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  services.CreateCaseNoteRequest
	}{
		{name: "missing title", req: services.CreateCaseNoteRequest{OwnerID: "u1"}},
		{name: "blank title", req: services.CreateCaseNoteRequest{Title: "   ", OwnerID: "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNoteFixture(t)
			_, err := f.svc.CreateNote(context.Background(), &tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateNote() error = %v, want validation failure", err)
			}
		})
	}
}

func TestCreateNote_TrashedFolderRejected(t *testing.T) {
	f := newNoteFixture(t)
	trashedAt := testTime()
	f.folders.add(models.Folder{ID: "p", Name: "p", OwnerID: "u1", DeletedAt: &trashedAt})

	_, err := f.svc.CreateNote(context.Background(), &services.CreateCaseNoteRequest{
		Title: "x", FolderID: ptr("p"), OwnerID: "u1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("creating in a trashed folder must fail validation, got %v", err)
	}
}

func TestUpdateNote(t *testing.T) {
	f := newNoteFixture(t)
	note := f.notes.addNote(models.CaseNote{Title: "draft", OwnerID: "u1"})

	title := "final"
	body := "updated body"
	updated, err := f.svc.UpdateNote(context.Background(), "u1", note.ID, &services.UpdateCaseNoteRequest{
		Title: &title,
		Body:  &body,
	})
	if err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	if updated.Title != "final" || updated.Body != "updated body" {
		t.Errorf("got %q / %q", updated.Title, updated.Body)
	}
}

func TestUpdateNote_TrashedRejected(t *testing.T) {
	f := newNoteFixture(t)
	trashedAt := testTime()
	note := f.notes.addNote(models.CaseNote{Title: "draft", OwnerID: "u1", DeletedAt: &trashedAt})

	title := "x"
	_, err := f.svc.UpdateNote(context.Background(), "u1", note.ID, &services.UpdateCaseNoteRequest{Title: &title})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("editing a trashed note must fail validation, got %v", err)
	}
}

func TestGetNote_Visibility(t *testing.T) {
	f := newNoteFixture(t)
	private := f.notes.addNote(models.CaseNote{Title: "private", OwnerID: "u1"})
	shared := f.notes.addNote(models.CaseNote{Title: "shared", OwnerID: "u1", Shared: true})

	if _, err := f.svc.GetNote(context.Background(), "u2", private.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("private note must report NotFound to others, got %v", err)
	}
	if _, err := f.svc.GetNote(context.Background(), "u2", shared.ID); err != nil {
		t.Errorf("shared note must be visible, got %v", err)
	}
}
