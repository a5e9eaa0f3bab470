// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/tutor-engine/internal/llm"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

// QualityReport is the gate a submission must pass before review.
type QualityReport struct {
	QualityScore   float64  `json:"quality_score"`
	MeetsStandards bool     `json:"meets_standards"`
	Feedback       string   `json:"feedback"`
	Strengths      []string `json:"strengths,omitempty"`
	Weaknesses     []string `json:"weaknesses,omitempty"`
}

// AnalyzeSubmission proposes where a student's submitted material fits
// in the graph. Like Detect, it degrades to a local proposal rather
// than failing.
func (d *Detector) AnalyzeSubmission(ctx context.Context, title, description, material string) types.Proposal {
	p, err := d.analyzeSubmission(ctx, title, description, material)
	if err != nil {
		fmt.Fprintf(d.progress, "warning: submission analysis for %q fell back to local proposal: %v\n", title, err)
		return submissionFallback(title, description)
	}
	return p
}

func (d *Detector) analyzeSubmission(ctx context.Context, title, description, material string) (types.Proposal, error) {
	var buf bytes.Buffer
	err := analyzeSubmissionTmpl.Execute(&buf, struct {
		Title, Description, SourceMaterial string
	}{title, description, material})
	if err != nil {
		return types.Proposal{}, err
	}

	names := conceptNames(d.store.AllConcepts())
	reply, err := llm.CompleteWithRetry(ctx, d.ai, llm.Request{
		Prompt:       buf.String(),
		SystemPrompt: fmt.Sprintf(analyzeSubmissionSystem, names),
		Temperature:  analysisTemperature,
	}, d.maxRetries)
	if err != nil {
		return types.Proposal{}, err
	}

	var raw aiProposal
	if err := json.Unmarshal([]byte(stripFences(reply)), &raw); err != nil {
		return types.Proposal{}, fmt.Errorf("parsing analysis reply: %w", err)
	}
	return d.validate(raw, title, "")
}

// AssessQuality scores a submission for clarity, accuracy, and
// completeness. When assessment itself fails, the submission passes
// with a neutral score so human review remains possible.
func (d *Detector) AssessQuality(ctx context.Context, title, description, material string) QualityReport {
	prompt := fmt.Sprintf("SUBMISSION TO ASSESS:\nTitle: %s\nDescription: %s\nSource Material: %s\n\nAssess this submission:", title, description, material)

	reply, err := llm.CompleteWithRetry(ctx, d.ai, llm.Request{
		Prompt:       prompt,
		SystemPrompt: assessQualitySystem,
		Temperature:  analysisTemperature,
	}, d.maxRetries)
	if err == nil {
		var report QualityReport
		if jerr := json.Unmarshal([]byte(stripFences(reply)), &report); jerr == nil {
			return report
		}
		err = fmt.Errorf("parsing assessment reply")
	}

	fmt.Fprintf(d.progress, "warning: quality assessment for %q unavailable: %v\n", title, err)
	return QualityReport{
		QualityScore:   0.5,
		MeetsStandards: true,
		Feedback:       "Automated quality assessment unavailable; submission queued for manual review.",
	}
}

func submissionFallback(title, description string) types.Proposal {
	desc := strings.TrimSpace(description)
	if len(desc) > 200 {
		desc = desc[:200]
	}
	return types.Proposal{
		ConceptID:   conceptID(title),
		ConceptName: title,
		Description: desc,
		Confidence:  fallbackConfidence,
		Priority:    types.PriorityFor(fallbackConfidence),
		Reasoning:   "Automated analysis failed; proposal generated locally and needs manual review.",
	}
}

func conceptNames(concepts []types.Concept) string {
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names = append(names, fmt.Sprintf("%s (%s)", c.ID, c.Name))
	}
	return strings.Join(names, ", ")
}
