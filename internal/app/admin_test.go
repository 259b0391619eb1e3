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

func TestFulfillmentQueueIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)

	if _, err := env.app.FulfillmentQueue(user); !errors.Is(err, ErrForbidden) {
		t.Fatalf("queue as dentist error = %v, want ErrForbidden", err)
	}
	if _, err := env.app.Delivered(user); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delivered as dentist error = %v, want ErrForbidden", err)
	}
	if _, err := env.app.DownloadRaw(context.Background(), user, "any"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("raw download as dentist error = %v, want ErrForbidden", err)
	}
}

func TestFulfillmentQueueOrdersByDeadline(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	proUser := env.signUp(t, "pro@example.com", domain.PlanPro)
	freeUser := env.signUp(t, "free@example.com", domain.PlanFree)

	// The free submission happens first but its 168h window puts it behind
	// the pro user's 72h deadline.
	freeScript := env.seedScript(t, domain.Script{Title: "fila-free", OwnerID: freeUser.ID, Status: domain.StatusRecorded})
	if _, err := submitVideo(t, env, freeUser, freeScript.ID, ""); err != nil {
		t.Fatalf("free submission: %v", err)
	}
	env.clock.Advance(time.Hour)
	proScript := env.seedScript(t, domain.Script{Title: "fila-pro", OwnerID: proUser.ID, Status: domain.StatusRecorded})
	if _, err := submitVideo(t, env, proUser, proScript.ID, ""); err != nil {
		t.Fatalf("pro submission: %v", err)
	}

	queue, err := env.app.FulfillmentQueue(admin)
	if err != nil {
		t.Fatalf("FulfillmentQueue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[0].Script.ID != proScript.ID {
		t.Fatalf("queue not ordered by deadline: first is %s", queue[0].Script.Title)
	}
	if queue[0].OwnerEmail != "pro@example.com" || queue[0].OwnerPlan != domain.PlanPro {
		t.Fatalf("owner details missing: %+v", queue[0])
	}
	if queue[0].DeliveryLabel == "" {
		t.Fatalf("queue item has no delivery label")
	}
}

func TestDeliverEdited(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	user := env.signUp(t, "dentist@example.com", domain.PlanPro)
	script := env.seedScript(t, domain.Script{Title: "entrega", OwnerID: user.ID, Status: domain.StatusRecorded})
	if _, err := submitVideo(t, env, user, script.ID, "legendas em português"); err != nil {
		t.Fatalf("submission: %v", err)
	}

	rawURL, err := env.app.DownloadRaw(context.Background(), admin, script.ID)
	if err != nil {
		t.Fatalf("DownloadRaw: %v", err)
	}
	if !strings.Contains(rawURL, "raw-videos/") {
		t.Fatalf("raw link %q not from the raw bucket", rawURL)
	}

	body := bytes.NewReader([]byte("edited-video-bytes"))
	delivered, err := env.app.DeliverEdited(context.Background(), admin, script.ID, "final.mp4", body, int64(body.Len()), "video/mp4")
	if err != nil {
		t.Fatalf("DeliverEdited: %v", err)
	}
	if delivered.Status != domain.StatusPublished || delivered.EditedVideoURL == "" || delivered.EditingCompletedAt == nil {
		t.Fatalf("unexpected script after delivery: %+v", delivered)
	}

	// Delivering again would leave the linear pipeline.
	again := bytes.NewReader([]byte("x"))
	if _, err := env.app.DeliverEdited(context.Background(), admin, script.ID, "v2.mp4", again, 1, "video/mp4"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second delivery error = %v, want ErrInvalidTransition", err)
	}

	// Both lifecycle events reached the publisher.
	if got := env.published.types(); len(got) != 2 || got[1] != "script.published" {
		t.Fatalf("published events = %v", got)
	}

	// The owner can now pull the edited video.
	links, err := env.app.ScriptVideoLinks(context.Background(), user, script.ID)
	if err != nil {
		t.Fatalf("ScriptVideoLinks: %v", err)
	}
	if !strings.Contains(links.EditedVideoURL, "edited-videos/") {
		t.Fatalf("edited link %q not from the edited bucket", links.EditedVideoURL)
	}

	deliveredList, err := env.app.Delivered(admin)
	if err != nil {
		t.Fatalf("Delivered: %v", err)
	}
	if len(deliveredList) != 1 || deliveredList[0].Script.ID != script.ID {
		t.Fatalf("delivered list = %+v", deliveredList)
	}
}

func TestDownloadRawWithoutAsset(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	user := env.signUp(t, "dentist@example.com", domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "sem-video", OwnerID: user.ID})

	if _, err := env.app.DownloadRaw(context.Background(), admin, script.ID); !errors.Is(err, ErrAssetUnavailable) {
		t.Fatalf("error = %v, want ErrAssetUnavailable", err)
	}
	if _, err := env.app.DownloadEdited(context.Background(), admin, script.ID); !errors.Is(err, ErrAssetUnavailable) {
		t.Fatalf("error = %v, want ErrAssetUnavailable", err)
	}
}

func TestDeliverEditedRequiresFile(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	user := env.signUp(t, "dentist@example.com", domain.PlanFree)
	script := env.seedScript(t, domain.Script{Title: "entrega", OwnerID: user.ID, Status: domain.StatusEditing})

	_, err := env.app.DeliverEdited(context.Background(), admin, script.ID, "final.mp4", nil, 0, "video/mp4")
	if !errors.Is(err, ErrVideoFileRequired) {
		t.Fatalf("error = %v, want ErrVideoFileRequired", err)
	}
}
