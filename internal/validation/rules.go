package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tribultz/pkg/fingerprint"
)

// The engine is a lightweight pattern matcher, not an XML parser: first
// occurrence wins, tag matching is case-insensitive, and the raw unparsed
// snippet is captured as evidence. Malformed or empty XML never errors;
// missing tags degrade to FATAL findings with placeholder evidence.

// Input carries everything the rule engine needs. The clock is supplied by
// the caller so results stay replayable.
type Input struct {
	TenantID     string
	DocumentType DocumentType
	XML          string
}

var (
	threeDigits = regexp.MustCompile(`^\d{3}$`)
	sixDigits   = regexp.MustCompile(`^\d{6}$`)
)

// fieldRule is one extraction+validation step. Order in the rules table is an
// observable contract: findings and evidences are emitted in table order.
type fieldRule struct {
	findingID string
	ruleID    string
	title     string
	field     string
	tags      []string
	valid     *regexp.Regexp
}

var fieldRules = []fieldRule{
	{
		findingID: "F_CST_LEN",
		ruleID:    "CST_3_DIGITS",
		title:     "CST inválido (esperado 3 dígitos)",
		field:     "CST",
		tags:      []string{"CST"},
		valid:     threeDigits,
	},
	{
		findingID: "F_CCLASSTRIB_LEN",
		ruleID:    "CCLASSTRIB_6_DIGITS",
		title:     "cClassTrib inválido (esperado 6 dígitos)",
		field:     "cClassTrib",
		tags:      []string{"cClassTrib"},
		valid:     sixDigits,
	},
	{
		findingID: "F_SERVICE_CODE_LEN",
		ruleID:    "SERVICE_CODE_6_DIGITS",
		title:     "Código de serviço inválido (esperado 6 dígitos)",
		field:     "CodigoServico",
		tags:      []string{"CodigoServico", "cServ", "codigoServico"},
		valid:     sixDigits,
	},
}

const defaultRecommendation = "Corrigir no ERP e reemitir (com justificativa se necessário)."

type tagMatch struct {
	tag     string
	value   string
	snippet string
}

// firstTag returns the first-occurring match for the first tag in tags that
// matches anywhere in the document, or nil. Tag candidates are tried in order;
// matching is case-insensitive.
func firstTag(xml string, tags []string) *tagMatch {
	for _, tag := range tags {
		re := regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `[^>]*>(.*?)</` + regexp.QuoteMeta(tag) + `>`)
		if m := re.FindStringSubmatch(xml); m != nil {
			return &tagMatch{tag: tag, value: strings.TrimSpace(m[1]), snippet: m[0]}
		}
	}
	return nil
}

// inferXPath builds the document-type-specific evidence path. It is a best
// guess from the tag name, not a parsed location.
func inferXPath(tag string, documentType DocumentType) string {
	base := "/nfeProc/NFe/infNFe"
	if documentType == DocumentTypeNFSE {
		base = "/NFS-e/infNfse"
	}
	return base + "//" + tag
}

func makeEvidenceID(seed string) string {
	return "E_XML_" + seed
}

// Run evaluates the fixed rule set over raw XML text and assembles the
// versioned result envelope. Identical (documentType, xml) input always
// yields identical ids and ordering.
func Run(input Input, now time.Time) (*Result, error) {
	if _, err := ParseDocumentType(string(input.DocumentType)); err != nil {
		return nil, err
	}

	xml := strings.TrimSpace(input.XML)
	fp := fingerprint.Sum32Hex(string(input.DocumentType) + "|" + xml)
	jobID := "job_xml_" + fp
	auditID := "audit_xml_" + fp

	var findings []Finding
	var evidences []Evidence
	seen := make(map[string]bool)

	addEvidence := func(ev Evidence) {
		if seen[ev.ID] {
			return
		}
		seen[ev.ID] = true
		evidences = append(evidences, ev)
	}

	for _, rule := range fieldRules {
		match := firstTag(xml, rule.tags)

		evID := makeEvidenceID(strings.TrimPrefix(rule.findingID, "F_"))
		xpath := inferXPath(rule.field, input.DocumentType)
		snippet := fmt.Sprintf("<!-- Campo %s não encontrado no XML -->", rule.field)
		value := ""
		if match != nil {
			xpath = inferXPath(match.tag, input.DocumentType)
			snippet = match.snippet
			value = match.value
		}

		if !rule.valid.MatchString(value) {
			findings = append(findings, Finding{
				ID:             rule.findingID,
				Severity:       SeverityFatal,
				RuleID:         rule.ruleID,
				Title:          rule.title,
				Where:          Where{Field: rule.field, XPath: xpath, Snippet: snippet},
				Recommendation: defaultRecommendation,
				EvidenceIDs:    []string{evID},
			})
		}
		// The evidence is registered regardless of pass/fail so the extraction
		// attempt itself stays traceable.
		addEvidence(NewXMLEvidence(evID, "Trecho XML — "+rule.field, xpath, snippet))
	}

	// NCM review is purely advisory: always emitted, no pass/fail test.
	ncm := firstTag(xml, []string{"NCM"})
	ncmXPath := inferXPath("NCM", input.DocumentType)
	ncmSnippet := "<!-- NCM não encontrado -->"
	if ncm != nil {
		ncmXPath = inferXPath(ncm.tag, input.DocumentType)
		ncmSnippet = ncm.snippet
	}
	ncmEvID := makeEvidenceID("NCM_INFO")
	addEvidence(NewXMLEvidence(ncmEvID, "NCM (avaliação informativa)", ncmXPath, ncmSnippet))
	ncmWhere := Where{Field: "NCM", XPath: ncmXPath}
	if ncm != nil {
		ncmWhere.Snippet = ncm.snippet
	}
	findings = append(findings, Finding{
		ID:             "A_NCM_REVIEW",
		Severity:       SeverityAlert,
		RuleID:         "NCM_PLACEHOLDER",
		Title:          "Revisar NCM conforme classificação fiscal vigente",
		Where:          ncmWhere,
		Recommendation: "Conferir classificação fiscal (NCM) e manter evidência de suporte.",
		EvidenceIDs:    []string{ncmEvID},
	})

	// Benefits review is likewise always emitted, backed by static checklist
	// text rather than an XML extraction.
	benefitEvID := makeEvidenceID("BENEFITS_INFO")
	addEvidence(NewPrintEvidence(benefitEvID, "Checklist de benefícios/créditos",
		"Validar benefícios e créditos aplicáveis antes do fechamento."))
	findings = append(findings, Finding{
		ID:             "A_BENEFITS_REVIEW",
		Severity:       SeverityAlert,
		RuleID:         "BENEFITS_PLACEHOLDER",
		Title:          "Revisar benefícios e créditos aplicáveis",
		Where:          Where{Field: "beneficios_creditos"},
		Recommendation: "Documentar justificativa fiscal para benefícios e créditos utilizados.",
		EvidenceIDs:    []string{benefitEvID},
	})

	result := &Result{
		Job: JobRef{
			ID:        jobID,
			CreatedAt: now,
			TenantID:  input.TenantID,
		},
		Audit: AuditRef{
			ID:    auditID,
			JobID: jobID,
			Events: []AuditEvent{
				{
					ID:        "evt_" + fp + "_created",
					Action:    "xml_validation_started",
					CreatedAt: now,
					Payload: map[string]any{
						"document_type":  string(input.DocumentType),
						"findings_total": len(findings),
						"fatals":         countFatal(findings),
					},
				},
			},
		},
		Findings:  findings,
		Evidences: evidences,
	}
	return result, nil
}

func countFatal(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Severity == SeverityFatal {
			n++
		}
	}
	return n
}
