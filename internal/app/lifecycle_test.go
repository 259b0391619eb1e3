package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sorriai/pkg/domain"
)

func submitVideo(t *testing.T, env *testEnv, actor domain.User, scriptID, notes string) (domain.Script, error) {
	t.Helper()
	body := bytes.NewReader([]byte("raw-video-bytes"))
	return env.app.SubmitForEditing(context.Background(), actor, scriptID, notes, "take1.mp4", body, int64(body.Len()), "video/mp4")
}

func TestMarkRecorded(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "clareamento", OwnerID: user.ID, ContentGenerated: true})

	updated, err := env.app.MarkRecorded(user, script.ID)
	if err != nil {
		t.Fatalf("MarkRecorded: %v", err)
	}
	if updated.Status != domain.StatusRecorded || updated.RecordedAt == nil {
		t.Fatalf("unexpected script after MarkRecorded: %+v", updated)
	}

	// Recording twice would skip backwards; the pipeline only moves forward.
	if _, err := env.app.MarkRecorded(user, script.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second MarkRecorded error = %v, want ErrInvalidTransition", err)
	}
}

func TestMarkRecordedRequiresGeneratedContent(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	idea := env.seedScript(t, domain.Script{Title: "ideia crua", OwnerID: user.ID})

	// An idea whose script was never generated stays in the script lane.
	if _, err := env.app.MarkRecorded(user, idea.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("MarkRecorded on ungenerated idea error = %v, want ErrInvalidTransition", err)
	}
	stored, _, _ := env.store.GetScript(idea.ID)
	if stored.Status != domain.StatusScript {
		t.Fatalf("idea left the script lane: %+v", stored)
	}
}

func TestScriptOwnershipIsOpaque(t *testing.T) {
	env := newTestEnv(t)
	owner := env.dentist(t, domain.PlanFree)
	other := env.signUp(t, "other@example.com", domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "sigiloso", OwnerID: owner.ID})

	if _, err := env.app.GetScript(other, script.ID); !errors.Is(err, ErrScriptNotFound) {
		t.Fatalf("foreign script error = %v, want ErrScriptNotFound", err)
	}
	if _, err := env.app.GetScript(owner, "no-such-id"); !errors.Is(err, ErrScriptNotFound) {
		t.Fatalf("missing script error = %v, want ErrScriptNotFound", err)
	}
}

func TestSubmitForEditing(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanPro)
	script := env.seedScript(t, domain.Script{Title: "implante", OwnerID: user.ID, Status: domain.StatusRecorded})

	submitted, err := submitVideo(t, env, user, script.ID, "cortar pausas longas")
	if err != nil {
		t.Fatalf("SubmitForEditing: %v", err)
	}
	if submitted.Status != domain.StatusEditing {
		t.Fatalf("status = %s, want editing", submitted.Status)
	}
	if submitted.RawVideoURL == "" || submitted.EditingNotes != "cortar pausas longas" {
		t.Fatalf("submission fields missing: %+v", submitted)
	}
	wantDelivery := env.clock.Now().UTC().Add(72 * time.Hour)
	if submitted.ExpectedDeliveryAt == nil || !submitted.ExpectedDeliveryAt.Equal(wantDelivery) {
		t.Fatalf("expected delivery %v, got %v", wantDelivery, submitted.ExpectedDeliveryAt)
	}
	if env.objects.count() != 1 {
		t.Fatalf("raw video not stored")
	}

	stored, _, _ := env.store.GetUserByID(user.ID)
	if stored.VideoEditsThisMonth != 1 {
		t.Fatalf("quota counter = %d, want 1", stored.VideoEditsThisMonth)
	}
	if got := env.published.types(); len(got) != 1 || got[0] != "script.editing" {
		t.Fatalf("published events = %v, want [script.editing]", got)
	}
}

func TestSubmitForEditingRequiresVideo(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "sem video", OwnerID: user.ID, Status: domain.StatusRecorded})

	_, err := env.app.SubmitForEditing(context.Background(), user, script.ID, "", "", nil, 0, "")
	if !errors.Is(err, ErrRawVideoRequired) {
		t.Fatalf("error = %v, want ErrRawVideoRequired", err)
	}
}

func TestSubmitForEditingEnforcesPipeline(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "ainda roteiro", OwnerID: user.ID})

	if _, err := submitVideo(t, env, user, script.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("submit from script lane error = %v, want ErrInvalidTransition", err)
	}
}

func TestSubmitForEditingQuotaExceeded(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree) // one edit per month
	first := env.seedScript(t, domain.Script{Title: "primeiro", OwnerID: user.ID, Status: domain.StatusRecorded})
	second := env.seedScript(t, domain.Script{Title: "segundo", OwnerID: user.ID, Status: domain.StatusRecorded})

	if _, err := submitVideo(t, env, user, first.ID, ""); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	_, err := submitVideo(t, env, user, second.ID, "")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("second submission error = %v, want ErrQuotaExceeded", err)
	}

	// The rejected submission must leave no trace: status, counter and
	// object storage all unchanged.
	stored, _, _ := env.store.GetScript(second.ID)
	if stored.Status != domain.StatusRecorded || stored.RawVideoURL != "" {
		t.Fatalf("rejected submission mutated the script: %+v", stored)
	}
	owner, _, _ := env.store.GetUserByID(user.ID)
	if owner.VideoEditsThisMonth != 1 {
		t.Fatalf("counter = %d after rejection, want 1", owner.VideoEditsThisMonth)
	}
	if env.objects.count() != 1 {
		t.Fatalf("rejected upload left an orphaned object")
	}
}

func TestDeliveryWindowIsFixedAtSubmission(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "prazo", OwnerID: user.ID, Status: domain.StatusRecorded})

	submitted, err := submitVideo(t, env, user, script.ID, "")
	if err != nil {
		t.Fatalf("SubmitForEditing: %v", err)
	}
	want := *submitted.ExpectedDeliveryAt

	// The label is recomputed as time passes, the deadline never is.
	if got := env.app.DeliveryLabelFor(submitted); got != "7d" {
		t.Fatalf("label at submission = %q, want 7d", got)
	}
	env.clock.Advance(6*24*time.Hour + 20*time.Hour)
	fresh, _, _ := env.store.GetScript(script.ID)
	if !fresh.ExpectedDeliveryAt.Equal(want) {
		t.Fatalf("deadline drifted from %v to %v", want, fresh.ExpectedDeliveryAt)
	}
	if got := env.app.DeliveryLabelFor(fresh); got != "today" {
		t.Fatalf("label near deadline = %q, want today", got)
	}
	env.clock.Advance(30 * time.Hour)
	if got := env.app.DeliveryLabelFor(fresh); got != "overdue" {
		t.Fatalf("label past deadline = %q, want overdue", got)
	}
}

func TestEditAndRevertRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	script := env.seedScript(t, domain.Script{
		Title: "editar", OwnerID: user.ID,
		Content: "roteiro gerado", Hook: "gancho gerado", Description: "descricao gerada",
		ContentGenerated: true,
	})

	edited := "roteiro ajustado"
	updated, err := env.app.UpdateScriptContent(user, script.ID, ContentUpdate{Content: &edited})
	if err != nil {
		t.Fatalf("UpdateScriptContent: %v", err)
	}
	if updated.Content != edited {
		t.Fatalf("content not updated")
	}
	if updated.OriginalContent == nil || *updated.OriginalContent != "roteiro gerado" {
		t.Fatalf("first edit did not snapshot the generated content")
	}

	// A second edit keeps the original snapshot from the first edit.
	again := "roteiro ajustado de novo"
	updated, err = env.app.UpdateScriptContent(user, script.ID, ContentUpdate{Content: &again})
	if err != nil {
		t.Fatalf("second UpdateScriptContent: %v", err)
	}
	if *updated.OriginalContent != "roteiro gerado" {
		t.Fatalf("second edit overwrote the snapshot")
	}
	if updated.OriginalHook != nil {
		t.Fatalf("untouched field grew a snapshot")
	}

	reverted, err := env.app.RevertScriptContent(user, script.ID)
	if err != nil {
		t.Fatalf("RevertScriptContent: %v", err)
	}
	if reverted.Content != "roteiro gerado" {
		t.Fatalf("revert did not restore the generated content")
	}
	if reverted.HasOriginal() {
		t.Fatalf("revert left shadow copies behind")
	}

	// One-shot: without a new edit there is nothing left to restore.
	if _, err := env.app.RevertScriptContent(user, script.ID); !errors.Is(err, ErrNoOriginalContent) {
		t.Fatalf("second revert error = %v, want ErrNoOriginalContent", err)
	}
}

func TestReorderOnlyInScriptLane(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	idea := env.seedScript(t, domain.Script{Title: "ideia", OwnerID: user.ID, StatusOrder: 2})
	recorded := env.seedScript(t, domain.Script{Title: "gravado", OwnerID: user.ID, Status: domain.StatusRecorded})

	moved, err := env.app.ReorderScript(user, idea.ID, 0)
	if err != nil {
		t.Fatalf("ReorderScript: %v", err)
	}
	if moved.StatusOrder != 0 {
		t.Fatalf("order = %d, want 0", moved.StatusOrder)
	}
	if _, err := env.app.ReorderScript(user, recorded.ID, 0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reorder outside script lane error = %v, want ErrInvalidTransition", err)
	}
}

func TestScriptVideoLinks(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanPro)
	script := env.seedScript(t, domain.Script{Title: "links", OwnerID: user.ID, Status: domain.StatusRecorded})

	links, err := env.app.ScriptVideoLinks(context.Background(), user, script.ID)
	if err != nil {
		t.Fatalf("ScriptVideoLinks on empty script: %v", err)
	}
	if links.RawVideoURL != "" || links.EditedVideoURL != "" {
		t.Fatalf("expected no links before any upload, got %+v", links)
	}

	submitted, err := submitVideo(t, env, user, script.ID, "")
	if err != nil {
		t.Fatalf("SubmitForEditing: %v", err)
	}
	links, err = env.app.ScriptVideoLinks(context.Background(), user, script.ID)
	if err != nil {
		t.Fatalf("ScriptVideoLinks: %v", err)
	}
	if !strings.Contains(links.RawVideoURL, submitted.RawVideoURL) {
		t.Fatalf("raw link %q does not reference stored key %q", links.RawVideoURL, submitted.RawVideoURL)
	}
}

func TestQuotaSurvivesProfileRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	first := env.seedScript(t, domain.Script{Title: "primeiro", OwnerID: user.ID, Status: domain.StatusRecorded})
	second := env.seedScript(t, domain.Script{Title: "segundo", OwnerID: user.ID, Status: domain.StatusRecorded})

	if _, err := submitVideo(t, env, user, first.ID, ""); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	// Resolving the profile mid-month (the same path every authenticated
	// request takes) must not be mistaken for a month boundary and hand
	// the spent edit back.
	_, token, err := env.app.Login(user.Email, "s3cret-password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok := env.app.UserFromToken(token); !ok {
		t.Fatalf("UserFromToken rejected a fresh session")
	}

	owner, _, _ := env.store.GetUserByID(user.ID)
	if owner.VideoEditsThisMonth != 1 {
		t.Fatalf("counter = %d after profile read, want 1", owner.VideoEditsThisMonth)
	}
	if _, err := submitVideo(t, env, user, second.ID, ""); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("second submission error = %v, want ErrQuotaExceeded", err)
	}
}
