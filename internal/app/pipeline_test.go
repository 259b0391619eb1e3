package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"sorriai/pkg/domain"
)

// Full journey: onboarding → idea batch → script generation → recording →
// editing submission → delivery, on the free plan.
func TestContentPipelineEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	user := env.signUp(t, "dra.ana@example.com", domain.PlanFree)

	user = completeOnboarding(t, env, user)

	env.generator.response = `{"subjects":[{"id":1,"subject":"Clareamento caseiro mancha os dentes?","hashtags":["#clareamento"],"objective":"educar","format":"pergunta_resposta","pillar":"mito_verdade","funnel_stage":"topo","hook_style":"pergunta_direta","content_angle":"riscos do clareamento sem supervisão"}]}`
	batch, err := env.app.GenerateIdeaBatch(context.Background(), user)
	if err != nil {
		t.Fatalf("GenerateIdeaBatch: %v", err)
	}
	idea := batch[0]

	env.generator.response = scriptJSON
	script, err := env.app.OpenScript(context.Background(), user, idea.ID)
	if err != nil {
		t.Fatalf("OpenScript: %v", err)
	}

	// A quick human touch before recording.
	hook := "Gancho com a minha cara"
	script, err = env.app.UpdateScriptContent(user, script.ID, ContentUpdate{Hook: &hook})
	if err != nil {
		t.Fatalf("UpdateScriptContent: %v", err)
	}

	script, err = env.app.MarkRecorded(user, script.ID)
	if err != nil {
		t.Fatalf("MarkRecorded: %v", err)
	}

	script, err = submitVideo(t, env, user, script.ID, "tirar o barulho do fundo")
	if err != nil {
		t.Fatalf("SubmitForEditing: %v", err)
	}
	wantDeadline := env.clock.Now().UTC().Add(168 * time.Hour)
	if !script.ExpectedDeliveryAt.Equal(wantDeadline) {
		t.Fatalf("free plan deadline = %v, want %v", script.ExpectedDeliveryAt, wantDeadline)
	}

	// Quota spent: a hypothetical second submission this month is blocked.
	blocked := env.seedScript(t, domain.Script{Title: "segundo video", OwnerID: user.ID, Status: domain.StatusRecorded})
	if _, err := submitVideo(t, env, user, blocked.ID, ""); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("free plan second submission error = %v, want ErrQuotaExceeded", err)
	}

	// The operator fulfills the job two days later.
	env.clock.Advance(48 * time.Hour)
	queue, err := env.app.FulfillmentQueue(admin)
	if err != nil {
		t.Fatalf("FulfillmentQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].Script.ID != script.ID {
		t.Fatalf("queue = %+v", queue)
	}
	body := bytes.NewReader([]byte("final-cut"))
	published, err := env.app.DeliverEdited(context.Background(), admin, script.ID, "final.mp4", body, int64(body.Len()), "video/mp4")
	if err != nil {
		t.Fatalf("DeliverEdited: %v", err)
	}
	if published.Status != domain.StatusPublished {
		t.Fatalf("status = %s, want published", published.Status)
	}
	// The deadline recorded at submission survives delivery untouched.
	if !published.ExpectedDeliveryAt.Equal(wantDeadline) {
		t.Fatalf("delivery rewrote the deadline")
	}

	// Board view shows the whole history; the edited hook survived the trip.
	board, err := env.app.ListScripts(user)
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	var found bool
	for _, s := range board {
		if s.ID == script.ID {
			found = true
			if s.Hook != "Gancho com a minha cara" {
				t.Fatalf("human edit lost: %q", s.Hook)
			}
		}
	}
	if !found {
		t.Fatalf("published script missing from the board")
	}
}
