package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardfolio/cardscan-cli/internal/model"
	"github.com/cardfolio/cardscan-cli/internal/resilience"
	"github.com/cardfolio/cardscan-cli/internal/vision"
)

// OpStatus records how a single enrichment operation resolved.
type OpStatus string

const (
	// OpOK means the operation produced a real value.
	OpOK OpStatus = "ok"
	// OpDefaulted means the operation failed and its documented default was
	// applied instead.
	OpDefaulted OpStatus = "defaulted"
	// OpSkipped means the operation's precondition did not hold, so it was
	// never attempted.
	OpSkipped OpStatus = "skipped"
)

// OpResult is the per-operation outcome surfaced alongside the contact so
// callers can distinguish real values from defaults.
type OpResult struct {
	Name   string
	Status OpStatus
	Err    error
}

// ScanRequest describes one card image to process.
type ScanRequest struct {
	ImageURI string
	// UserIndustry enables the competitor check; empty skips it.
	UserIndustry string
	// OnStatus receives human-readable progress updates. Optional.
	OnStatus func(status string)
}

// ScanOutcome is the complete result of processing one card. Process never
// fails: when extraction itself breaks, Contact is a fallback draft and
// FellBack is true.
type ScanOutcome struct {
	Contact model.Contact
	Ops     []OpResult
	// FellBack reports that enrichment never ran, either because extraction
	// failed outright or because the card lacked both a name and a company.
	FellBack bool
}

// OpResult returns the result for the named operation, if recorded.
func (o *ScanOutcome) OpResult(name string) (OpResult, bool) {
	for _, op := range o.Ops {
		if op.Name == name {
			return op, true
		}
	}
	return OpResult{}, false
}

// Orchestrator runs the full scan pipeline: vision extraction, a concurrent
// enrichment wave, then a dependent follow-up wave.
type Orchestrator struct {
	extractor vision.Extractor
	quality   QualityAnalyzer
	services  Services
	retry     resilience.RetryConfig
	now       func() time.Time
}

// NewOrchestrator wires the pipeline. retry governs every remote enrichment
// operation individually.
func NewOrchestrator(extractor vision.Extractor, quality QualityAnalyzer, services Services, retry resilience.RetryConfig) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		quality:   quality,
		services:  services,
		retry:     retry,
		now:       time.Now,
	}
}

// opRecorder collects OpResults from concurrent operations.
type opRecorder struct {
	mu  sync.Mutex
	ops []OpResult
}

func (r *opRecorder) record(name string, status OpStatus, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, OpResult{Name: name, Status: status, Err: err})
}

// runOp executes fn with retries and falls back to def on failure, recording
// the outcome. Operation failures are absorbed here; they never propagate.
func runOp[T any](ctx context.Context, o *Orchestrator, rec *opRecorder, name string, def T, fn func(context.Context) (T, error)) T {
	val, err := resilience.DoVal(ctx, o.retry, fn)
	if err != nil {
		zap.L().Warn("enrichment operation defaulted",
			zap.String("operation", name),
			zap.Error(err))
		rec.record(name, OpDefaulted, err)
		return def
	}
	rec.record(name, OpOK, nil)
	return val
}

func notify(req ScanRequest, status string) {
	if req.OnStatus != nil {
		req.OnStatus(status)
	}
}

// Process runs the scan pipeline for one card image. It always returns a
// usable outcome: extraction failure yields a fully-defaulted draft, a card
// without both name and company keeps its raw fields but skips enrichment,
// and any individual enrichment failure is replaced by that operation's
// documented default.
func (o *Orchestrator) Process(ctx context.Context, req ScanRequest) *ScanOutcome {
	notify(req, "Scanning business card...")

	raw, err := o.extractor.Extract(ctx, req.ImageURI)
	if err != nil {
		zap.L().Error("vision extraction failed, returning fallback draft",
			zap.String("image", req.ImageURI),
			zap.Error(err))
		return o.fallbackOutcome(req, model.RawExtraction{}, model.ScanQualityUnknown, err)
	}

	if !raw.HasCriticalFields() {
		zap.L().Info("card missing name or company, skipping enrichment",
			zap.String("image", req.ImageURI))
		return o.fallbackOutcome(req, raw, model.ScanQualityPoor, nil)
	}

	notify(req, "Analyzing scan quality...")
	notify(req, fmt.Sprintf("Finding info about %s...", displayName(raw)))

	rec := &opRecorder{}
	draft := o.newDraft(req, raw)

	// Wave 1: quality plus ten independent enrichments. Each operation fails
	// soft into its default, so the barrier always completes.
	var (
		assessment model.QualityAssessment
		location   *model.Location
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		assessment = o.assessQuality(raw, rec)
		return nil
	})
	g.Go(func() error {
		draft.Industry = runOp(gctx, o, rec, "classifyIndustry", DefaultIndustry,
			func(ctx context.Context) (string, error) {
				return o.services.ClassifyIndustry(ctx, raw.Company, raw.Title)
			})
		return nil
	})
	g.Go(func() error {
		draft.CompanySize = runOp(gctx, o, rec, "estimateCompanySize", model.CompanySizeUnknown,
			func(ctx context.Context) (model.CompanySize, error) {
				return o.services.EstimateCompanySize(ctx, raw.Company)
			})
		return nil
	})
	g.Go(func() error {
		draft.Category = runOp(gctx, o, rec, "categorizeContact", model.CategoryOther,
			func(ctx context.Context) (model.ContactCategory, error) {
				return o.services.Categorize(ctx, raw.Name, raw.Title, raw.Company)
			})
		return nil
	})
	g.Go(func() error {
		if req.UserIndustry == "" {
			rec.record("checkCompetitor", OpSkipped, nil)
			draft.IsCompetitor = false
			return nil
		}
		draft.IsCompetitor = runOp(gctx, o, rec, "checkCompetitor", false,
			func(ctx context.Context) (bool, error) {
				return o.services.CheckCompetitor(ctx, raw.Company, raw.Title, req.UserIndustry)
			})
		return nil
	})
	g.Go(func() error {
		draft.PriorityScore = runOp(gctx, o, rec, "scorePriority", DefaultPriorityScore,
			func(ctx context.Context) (int, error) {
				return o.services.ScorePriority(ctx, raw.Title, raw.Company)
			})
		return nil
	})
	g.Go(func() error {
		draft.Tags = runOp(gctx, o, rec, "generateTags", []string{},
			func(ctx context.Context) ([]string, error) {
				return o.services.GenerateTags(ctx, raw.Name, raw.Title, raw.Company)
			})
		return nil
	})
	g.Go(func() error {
		if raw.Address == "" {
			rec.record("parseLocation", OpSkipped, nil)
			return nil
		}
		location = runOp(gctx, o, rec, "parseLocation", &model.Location{Address: raw.Address},
			func(ctx context.Context) (*model.Location, error) {
				return o.services.ParseLocation(ctx, raw.Address)
			})
		return nil
	})
	g.Go(func() error {
		draft.PersonSummary = runOp(gctx, o, rec, "summarizePerson",
			DefaultPersonSummary(raw.Name, raw.Title, raw.Company),
			func(ctx context.Context) (string, error) {
				return o.services.SummarizePerson(ctx, raw.Name, raw.Title, raw.Company)
			})
		return nil
	})
	g.Go(func() error {
		draft.CompanySummary = runOp(gctx, o, rec, "summarizeCompany",
			DefaultCompanySummary(raw.Company),
			func(ctx context.Context) (string, error) {
				return o.services.SummarizeCompany(ctx, raw.Company)
			})
		return nil
	})
	g.Go(func() error {
		draft.LinkedInURL = o.services.ResolveProfileLink(raw.Name, raw.Company)
		rec.record("resolveProfileLink", OpOK, nil)
		return nil
	})

	// Goroutines never return errors; Wait is the wave barrier.
	_ = g.Wait()

	draft.OCRConfidence = assessment.Confidence
	draft.ScanQuality = assessment.Quality
	draft.Location = location

	// Wave 2 depends on Wave 1's person summary, real or defaulted.
	notify(req, "Generating conversation starters...")
	draft.ConversationStarters = runOp(ctx, o, rec, "conversationStarters",
		DefaultConversationStarters(raw.Name, raw.Title, raw.Company),
		func(ctx context.Context) ([]string, error) {
			return o.services.ConversationStarters(ctx, raw.Name, raw.Title, raw.Company, draft.PersonSummary)
		})

	return &ScanOutcome{Contact: draft, Ops: rec.ops}
}

// assessQuality runs the quality analyzer, guarding failures to a neutral
// confidence of 50 and unknown quality.
func (o *Orchestrator) assessQuality(raw model.RawExtraction, rec *opRecorder) model.QualityAssessment {
	assessment, err := o.quality.Assess(raw)
	if err != nil {
		zap.L().Warn("quality assessment defaulted", zap.Error(err))
		rec.record("analyzeQuality", OpDefaulted, err)
		return model.QualityAssessment{Confidence: 50, Quality: model.ScanQualityUnknown}
	}
	rec.record("analyzeQuality", OpOK, nil)
	return assessment
}

// newDraft seeds a contact from the raw fields. ID and the persistence
// timestamps stay zero; the store assigns them on insert. ScanTimestamp is
// the pipeline's: it records when the card was scanned, not when it was
// saved.
func (o *Orchestrator) newDraft(req ScanRequest, raw model.RawExtraction) model.Contact {
	return model.Contact{
		RawExtraction: raw,
		ImageURI:      req.ImageURI,
		CardImageURI:  req.ImageURI,
		ScanTimestamp: o.now(),
	}
}

// fallbackOutcome builds the draft used when enrichment never runs. All
// enriched fields take their documented defaults and OCR confidence is 0.
func (o *Orchestrator) fallbackOutcome(req ScanRequest, raw model.RawExtraction, quality model.ScanQuality, cause error) *ScanOutcome {
	draft := o.newDraft(req, raw)
	draft.ApplyDefaults()
	draft.OCRConfidence = 0
	draft.ScanQuality = quality

	status := OpSkipped
	if cause != nil {
		status = OpDefaulted
	}
	return &ScanOutcome{
		Contact:  draft,
		Ops:      []OpResult{{Name: "extractFields", Status: status, Err: cause}},
		FellBack: true,
	}
}

// displayName prefers the person's name for progress messages, falling back
// to the company.
func displayName(raw model.RawExtraction) string {
	if raw.Name != "" {
		return raw.Name
	}
	return raw.Company
}
