package app

import (
	"fmt"
	"strings"

	"sorriai/pkg/domain"
)

// Prompt construction. All prompts are in Brazilian Portuguese because the
// product serves dentists in Brazil; the questionnaire answers are injected
// verbatim with safe generic defaults for anything left blank.

var toneDescriptions = map[string]string{
	"premium":   "sofisticado e exclusivo",
	"friendly":  "amigável e acolhedor",
	"humorous":  "bem-humorado e leve",
	"technical": "técnico e preciso",
	"direct":    "direto e objetivo",
	"welcoming": "caloroso e receptivo",
}

var personaDescriptions = map[string]string{
	"authority":      "especialista reconhecido que demonstra domínio técnico",
	"advisor":        "conselheiro de confiança que orienta com empatia",
	"serious_doctor": "profissional sério e confiável",
	"storyteller":    "contador de histórias que conecta através de narrativas",
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func joinOrDefault(values []string, sep, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, sep)
}

func describeTones(tones []string) string {
	if len(tones) == 0 {
		return "profissional"
	}
	described := make([]string, 0, len(tones))
	for _, t := range tones {
		if d, ok := toneDescriptions[t]; ok {
			described = append(described, d)
		} else {
			described = append(described, t)
		}
	}
	return strings.Join(described, ", ")
}

func describePersona(persona string) string {
	if persona == "" {
		return "profissional de saúde"
	}
	if d, ok := personaDescriptions[persona]; ok {
		return d
	}
	return persona
}

// subjectsDistribution is the mandatory strategic mix for an idea batch,
// scaled to the batch size.
type subjectsDistribution struct {
	byPillar      map[string]int
	byFunnel      map[string]int
	flagshipMin   int
	bottleneckMin int
	objectionMin  int
	mythMin       int
}

func distributionFor(ideaCount int) subjectsDistribution {
	if ideaCount >= 30 {
		return subjectsDistribution{
			byPillar:      map[string]int{"educacional": 6, "quebra_objecao": 6, "mito_verdade": 6, "autoridade": 6, "prova_social": 4, "conversao": 2},
			byFunnel:      map[string]int{"topo": 12, "meio": 12, "fundo": 6},
			flagshipMin:   8,
			bottleneckMin: 5,
			objectionMin:  6,
			mythMin:       2,
		}
	}
	return subjectsDistribution{
		byPillar:      map[string]int{"educacional": 2, "quebra_objecao": 2, "mito_verdade": 2, "autoridade": 2, "prova_social": 1, "conversao": 1},
		byFunnel:      map[string]int{"topo": 4, "meio": 4, "fundo": 2},
		flagshipMin:   3,
		bottleneckMin: 2,
		objectionMin:  2,
		mythMin:       1,
	}
}

// buildSubjectsPrompt builds the system prompt for an idea batch. Previous
// titles are injected so the model avoids repeating angles already used.
func buildSubjectsPrompt(ob domain.Onboarding, previousTitles []string, ideaCount int) string {
	dist := distributionFor(ideaCount)
	previous := "Nenhum assunto criado ainda."
	if len(previousTitles) > 0 {
		previous = "- " + strings.Join(previousTitles, "\n- ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Você é um estrategista de conteúdo especializado em marketing digital para profissionais de odontologia no Brasil.

## SUA MISSÃO
Gerar %d ideias estratégicas de assuntos/temas para vídeos curtos (Reels/TikTok/Shorts) que serão posteriormente transformados em roteiros completos.
IMPORTANTE: Você está gerando APENAS os assuntos/temas, NÃO os roteiros completos.

## PERFIL DO PROFISSIONAL
- Especialidade principal: %s
- Procedimentos foco: %s
- Procedimento carro-chefe: %s
- Procedimentos prioritários: %s
- Diferencial competitivo: %s
- Tom de voz: %s

## PÚBLICO-ALVO
- Paciente ideal: %s
- Principais dores: %s
- Objeções mais comuns: %s
- Perguntas frequentes: %s

## CONTEXTO DO NEGÓCIO
- Principal gargalo: %s
- Provas sociais disponíveis: %s
- Mito a desconstruir: %s

## HISTÓRICO (ANTI-REPETIÇÃO)
ASSUNTOS JÁ CRIADOS ANTERIORMENTE (NÃO REPETIR):
%s

REGRA DE ANTI-REPETIÇÃO:
- É PROIBIDO repetir tema central, gancho ou argumentos principais
- Considere "repetido" se houver 2+ coincidências com qualquer assunto antigo
- Não basta trocar palavras: deve mudar o ÂNGULO e a ABORDAGEM
- Se tocar em assunto próximo, recorte para SUBTEMA NOVO

## ESTRUTURA DE CADA IDEIA
Para cada ideia, defina TODOS os campos:
1. subject: título claro, específico e chamativo (máximo 80 caracteres)
2. hashtags: array de exatamente 8 strings (2 da especialidade, 2 de dor/desejo, 2 de alcance médio, 1 local, 1 trending)
3. objective: use APENAS "atrair", "educar", "engajar" ou "converter"
4. format: use APENAS "pergunta_resposta", "lista_3_pontos", "historia_curta", "mito_vs_verdade", "erro_comum", "analogia", "antes_depois", "bastidores", "provocacao" ou "tutorial_rapido"
5. pillar: use APENAS "educacional", "quebra_objecao", "mito_verdade", "autoridade", "prova_social" ou "conversao"
6. funnel_stage: use APENAS "topo", "meio" ou "fundo"
7. hook_style: use APENAS "pergunta_direta", "afirmacao_chocante", "historia", "comando", "curiosidade" ou "identificacao"
8. content_angle: breve descrição (máx 100 caracteres) do ângulo único deste conteúdo

## DISTRIBUIÇÃO OBRIGATÓRIA (total = %d)
Por pilar: educacional %d, quebra_objecao %d, mito_verdade %d, autoridade %d, prova_social %d, conversao %d.
Por funil: topo %d, meio %d, fundo %d.
Priorize o procedimento carro-chefe (mínimo %d ideias), ataque o gargalo de negócio (mínimo %d), quebre as objeções principais (mínimo %d) e desconstrua o mito informado (mínimo %d).

## CONFORMIDADE ÉTICA
Todos os assuntos devem permitir roteiros que NÃO prometam resultados específicos, NÃO façam orientação clínica individual, incentivem avaliação profissional e respeitem o Código de Ética Odontológico brasileiro.

## FORMATO DE SAÍDA
Retorne EXCLUSIVAMENTE um JSON válido, sem NENHUM texto antes ou depois:
{"subjects":[{"id":1,"subject":"string","hashtags":["string","string","string","string","string","string","string","string"],"objective":"string","format":"string","pillar":"string","funnel_stage":"string","hook_style":"string","content_angle":"string"}]}

São exatamente %d itens no array "subjects", com IDs de 1 a %d. GERE AGORA OS %d ASSUNTOS.`,
		ideaCount,
		orDefault(joinOrDefault(ob.MainSpecialty, " e ", ""), "Odontologia geral"),
		orDefault(ob.FocusProcedures, "Diversos procedimentos"),
		orDefault(ob.FlagshipProcedure, "Especialidade principal"),
		orDefault(ob.PriorityProcedures, "Procedimentos de alta demanda"),
		orDefault(ob.RealDifferentiator, "Atendimento de qualidade"),
		describeTones(ob.ToneOfVoice),
		orDefault(ob.IdealPatient, "Pacientes que buscam qualidade"),
		orDefault(ob.PatientPains, "Medo de procedimentos, custo, tempo"),
		orDefault(ob.MainObjection, "Preço ou medo"),
		orDefault(ob.CommonQuestions, "Dúvidas sobre procedimentos e valores"),
		orDefault(ob.MainBottleneck, "Atração de pacientes"),
		joinOrDefault(ob.ProofTypes, ", ", "Depoimentos de pacientes"),
		orDefault(ob.MythToBreak, "Mitos comuns da odontologia"),
		previous,
		ideaCount,
		dist.byPillar["educacional"], dist.byPillar["quebra_objecao"], dist.byPillar["mito_verdade"],
		dist.byPillar["autoridade"], dist.byPillar["prova_social"], dist.byPillar["conversao"],
		dist.byFunnel["topo"], dist.byFunnel["meio"], dist.byFunnel["fundo"],
		dist.flagshipMin, dist.bottleneckMin, dist.objectionMin, dist.mythMin,
		ideaCount, ideaCount, ideaCount,
	)
	return b.String()
}

// buildScriptSystemPrompt builds the roteirista system prompt used to
// realize a single idea into a recordable script.
func buildScriptSystemPrompt(ob domain.Onboarding) string {
	hasCases := "Não"
	if ob.HasAuthorizedCases {
		hasCases = "Sim"
	}
	return fmt.Sprintf(`PAPEL: Você é um roteirista especializado em vídeos curtos (Reels/TikTok) para dentistas no Brasil. Seu objetivo é criar conteúdo que gere engajamento, autoridade e conversões.

ESPECIFICAÇÕES TÉCNICAS
Duração: 50-60 segundos (entre 140-170 palavras obrigatoriamente)
Estrutura narrativa (nesta ordem):
1. GANCHO (2-3 segundos): pergunta, dado surpreendente ou afirmação provocativa
2. PROBLEMA: identifique a dor ou frustração do público
3. EXPLICAÇÃO: simplifique o conceito (se usar termo técnico, traduza imediatamente)
4. SOLUÇÃO/DICAS: conteúdo educativo, sem prescrição clínica individual
5. PROVA: autoridade de forma impessoal
6. CTA: convite claro para próximo passo

REGRAS DE LINGUAGEM
- Frases curtas e diretas (máximo 15 palavras por frase)
- Tom conversacional, como se falasse olhando para a câmera
- Use "(pausa)" para indicar respiros dramáticos
- Quebre linhas para facilitar a leitura e gravação

REGRAS DE CONTEÚDO
Autoridade/Prova: use APENAS frases impessoais ("Na prática do consultório, vejo muito...", "No dia a dia com pacientes, é comum...").
CTA final: use APENAS convites para Direct, WhatsApp ou agendamento de avaliação.

PROIBIÇÕES (não use em hipótese alguma)
- Nome do dentista
- Orientação clínica individual
- CTAs com palavra-chave ("Comente DENTE")
- "Link na bio"
- Emojis no texto de fala
- Títulos, cabeçalhos ou marcadores dentro do texto de fala

FORMATO DE RESPOSTA
Responda APENAS com um objeto JSON válido, sem texto adicional antes ou depois:
{"hook":"frase de abertura isolada","full_script":"texto corrido de fala pronto para gravar, com \n para quebras de linha e (pausa) onde necessário, 140-170 palavras, incluindo o CTA final","description":"1-3 parágrafos curtos, máximo 600 caracteres, com CTA coerente e 3-5 hashtags relevantes no final"}

PERFIL DO DENTISTA
- Especialidade principal: %s
- Procedimentos foco: %s
- Diferencial real: %s
- Como quer ser lembrado: %s

TOM DE VOZ E IDENTIDADE
- Tom de comunicação: %s
- Persona: %s
- Linguagem a evitar: %s

PÚBLICO-ALVO
- Paciente ideal: %s
- Dores do paciente: %s
- Principal objeção: %s
- Por que adiam a decisão: %s
- Perguntas frequentes: %s

SERVIÇOS E POSICIONAMENTO
- Procedimentos prioritários: %s
- Procedimento carro-chefe: %s
- Medo sobre o carro-chefe: %s
- Mito a quebrar: %s

PROVAS E AUTORIDADE
- Tem casos autorizados: %s
- Tipos de prova social: %s
- Diferenciais técnicos: %s
- Conquistas: %s
- História de conexão: %s

INSTRUÇÃO FINAL
Se algum dado estiver incompleto ou ausente, assuma o padrão mais seguro e genérico. Não mencione suposições. Entregue apenas o JSON final pronto e válido.`,
		orDefault(joinOrDefault(ob.MainSpecialty, " e ", ""), "Odontologia geral"),
		orDefault(ob.FocusProcedures, "Diversos procedimentos"),
		orDefault(ob.RealDifferentiator, "Atendimento de qualidade"),
		orDefault(ob.HowToBeRemembered, "Como um profissional de excelência"),
		describeTones(ob.ToneOfVoice),
		describePersona(ob.Persona),
		orDefault(ob.LanguageToAvoid, "Termos muito técnicos sem explicação"),
		orDefault(ob.IdealPatient, "Pacientes que buscam qualidade"),
		orDefault(ob.PatientPains, "Medo de procedimentos, custo, tempo"),
		orDefault(ob.MainObjection, "Preço ou medo"),
		orDefault(ob.DecisionDelayReason, "Insegurança ou falta de urgência"),
		orDefault(ob.CommonQuestions, "Dúvidas sobre procedimentos e valores"),
		orDefault(ob.PriorityProcedures, "Procedimentos de alta demanda"),
		orDefault(ob.FlagshipProcedure, "Especialidade principal"),
		orDefault(ob.FlagshipFear, "Comunicar sem parecer vendedor"),
		orDefault(ob.MythToBreak, "Mitos comuns da odontologia"),
		hasCases,
		joinOrDefault(ob.ProofTypes, ", ", "Depoimentos de pacientes"),
		orDefault(ob.TechnicalDifferentiators, "Equipamentos modernos"),
		orDefault(ob.Achievements, "Experiência e formação"),
		orDefault(ob.ConnectionStory, "Paixão pela odontologia"),
	)
}

// buildScriptUserPrompt names the idea being realized together with its
// strategy metadata.
func buildScriptUserPrompt(script domain.Script) string {
	topic := script.Topic
	if topic == "" {
		topic = script.Title
	}
	return fmt.Sprintf(`Crie 1 roteiro de vídeo curto + descrição para publicação.

Tema obrigatório: %s
Tipo de roteiro: %s
Pilar: %s
Estilo de gancho: %s
Ângulo do conteúdo: %s
Objetivo: %s`,
		topic,
		orDefault(script.Format, "livre"),
		orDefault(script.Pillar, "educacional"),
		orDefault(script.HookStyle, "livre"),
		orDefault(script.ContentAngle, "livre"),
		orDefault(script.Objective, "educar"),
	)
}
