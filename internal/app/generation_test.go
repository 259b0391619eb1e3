package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sorriai/pkg/domain"
)

const scriptJSON = `{"hook":"Você sabia?","full_script":"Texto de fala pronto para gravar.","description":"Descrição com CTA #saudebucal"}`

func completeOnboarding(t *testing.T, env *testEnv, user domain.User) domain.User {
	t.Helper()
	updated, err := env.app.CompleteOnboarding(user, domain.Onboarding{
		MainSpecialty:     []string{"Ortodontia"},
		FlagshipProcedure: "Alinhadores invisíveis",
		MythToBreak:       "Aparelho é só para adolescentes",
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	return updated
}

func TestOpenScriptGeneratesOnce(t *testing.T) {
	env := newTestEnv(t)
	user := completeOnboarding(t, env, env.dentist(t, domain.PlanFree))
	idea := env.seedScript(t, domain.Script{Title: "aparelho invisível funciona?", OwnerID: user.ID})

	env.generator.response = scriptJSON
	opened, err := env.app.OpenScript(context.Background(), user, idea.ID)
	if err != nil {
		t.Fatalf("OpenScript: %v", err)
	}
	if !opened.ContentGenerated {
		t.Fatalf("content_generated not set")
	}
	if opened.Content != "Texto de fala pronto para gravar." || opened.Hook != "Você sabia?" {
		t.Fatalf("generated fields not persisted: %+v", opened)
	}
	if !strings.Contains(env.generator.lastUser, "aparelho invisível funciona?") {
		t.Fatalf("idea topic missing from prompt: %q", env.generator.lastUser)
	}

	// Re-opening serves the stored content without another model call.
	env.generator.response = `{"hook":"outro","full_script":"outro texto","description":"outra"}`
	reopened, err := env.app.OpenScript(context.Background(), user, idea.ID)
	if err != nil {
		t.Fatalf("second OpenScript: %v", err)
	}
	if reopened.Content != opened.Content {
		t.Fatalf("reopen regenerated content")
	}
	if env.generator.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", env.generator.calls)
	}
}

func TestOpenScriptFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	user := completeOnboarding(t, env, env.dentist(t, domain.PlanFree))
	idea := env.seedScript(t, domain.Script{Title: "falha", OwnerID: user.ID})

	env.generator.err = errors.New("upstream timeout")
	if _, err := env.app.OpenScript(context.Background(), user, idea.ID); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("provider failure error = %v, want ErrGenerationFailed", err)
	}

	env.generator.err = nil
	env.generator.response = "desculpe, não consegui gerar um JSON"
	if _, err := env.app.OpenScript(context.Background(), user, idea.ID); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("malformed output error = %v, want ErrGenerationFailed", err)
	}

	// Nothing partial was written; the idea stays openable.
	stored, _, _ := env.store.GetScript(idea.ID)
	if stored.ContentGenerated || stored.Content != "" {
		t.Fatalf("failed generation left partial content: %+v", stored)
	}

	env.generator.response = "```json\n" + scriptJSON + "\n```"
	opened, err := env.app.OpenScript(context.Background(), user, idea.ID)
	if err != nil {
		t.Fatalf("fenced JSON should still parse: %v", err)
	}
	if !opened.ContentGenerated {
		t.Fatalf("retry after failure did not generate")
	}
}

func TestGenerateIdeaBatch(t *testing.T) {
	env := newTestEnv(t)
	user := completeOnboarding(t, env, env.dentist(t, domain.PlanFree))
	env.seedScript(t, domain.Script{Title: "assunto antigo sobre clareamento", OwnerID: user.ID, StatusOrder: 0})

	env.generator.response = `{"subjects":[
		{"id":1,"subject":"Por que alinhador barato sai caro","hashtags":["#orto","#alinhadores","#medodedentista","#sorriso","#dicas","#saudebucal","#dentistasp","#viral"],"objective":"educar","format":"erro_comum","pillar":"educacional","funnel_stage":"topo","hook_style":"curiosidade","content_angle":"custo real vs preço"},
		{"id":2,"subject":"3 sinais de que seu aparelho não está funcionando","hashtags":["#orto"],"objective":"atrair","format":"lista_3_pontos","pillar":"educacional","funnel_stage":"topo","hook_style":"identificacao","content_angle":"sinais de alerta"}
	]}`

	batch, err := env.app.GenerateIdeaBatch(context.Background(), user)
	if err != nil {
		t.Fatalf("GenerateIdeaBatch: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	for i, s := range batch {
		if s.Status != domain.StatusScript || s.ContentGenerated {
			t.Fatalf("idea %d not created as an unrealized script: %+v", i, s)
		}
		if s.StatusOrder != 1+i {
			t.Fatalf("idea %d order = %d, want %d", i, s.StatusOrder, 1+i)
		}
	}
	if batch[0].Pillar != "educacional" || len(batch[0].Hashtags) != 8 {
		t.Fatalf("strategy metadata not captured: %+v", batch[0])
	}

	// Existing titles feed the anti-repetition block of the prompt.
	if !strings.Contains(env.generator.lastSystem, "assunto antigo sobre clareamento") {
		t.Fatalf("previous titles missing from prompt")
	}
	// Free plan asks for a 10-idea batch.
	if !strings.Contains(env.generator.lastSystem, "Gerar 10 ideias") {
		t.Fatalf("free plan batch size missing from prompt")
	}
}

func TestGenerateIdeaBatchRequiresOnboarding(t *testing.T) {
	env := newTestEnv(t)
	user := env.dentist(t, domain.PlanFree)
	if _, err := env.app.GenerateIdeaBatch(context.Background(), user); !errors.Is(err, ErrOnboardingRequired) {
		t.Fatalf("error = %v, want ErrOnboardingRequired", err)
	}
}

func TestGenerateIdeaBatchProPlanSize(t *testing.T) {
	env := newTestEnv(t)
	user := completeOnboarding(t, env, env.dentist(t, domain.PlanPro))

	env.generator.response = `{"subjects":[{"id":1,"subject":"só um","hashtags":[],"objective":"educar","format":"analogia","pillar":"educacional","funnel_stage":"meio","hook_style":"historia","content_angle":"x"}]}`
	if _, err := env.app.GenerateIdeaBatch(context.Background(), user); err != nil {
		t.Fatalf("GenerateIdeaBatch: %v", err)
	}
	if !strings.Contains(env.generator.lastSystem, "Gerar 30 ideias") {
		t.Fatalf("pro plan batch size missing from prompt")
	}
}
