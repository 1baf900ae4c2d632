package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/cardfolio/cardscan-cli/internal/model"
	"github.com/cardfolio/cardscan-cli/pkg/anthropic"
)

// Services derives business-intelligence attributes from the raw card
// fields. Every operation is independent given a RawExtraction; the
// orchestrator owns defaulting, so implementations return errors rather than
// swallowing them.
type Services interface {
	ClassifyIndustry(ctx context.Context, company, title string) (string, error)
	EstimateCompanySize(ctx context.Context, company string) (model.CompanySize, error)
	Categorize(ctx context.Context, name, title, company string) (model.ContactCategory, error)
	CheckCompetitor(ctx context.Context, company, title, userIndustry string) (bool, error)
	ScorePriority(ctx context.Context, title, company string) (int, error)
	GenerateTags(ctx context.Context, name, title, company string) ([]string, error)
	ParseLocation(ctx context.Context, address string) (*model.Location, error)
	SummarizePerson(ctx context.Context, name, title, company string) (string, error)
	SummarizeCompany(ctx context.Context, company string) (string, error)
	// ResolveProfileLink is deterministic and needs no external call.
	ResolveProfileLink(name, company string) string
	ConversationStarters(ctx context.Context, name, title, company, personSummary string) ([]string, error)
}

// MaxTags caps the generated tag set.
const MaxTags = 5

// industryVocabulary is the preferred classification set; free text outside
// it is still accepted.
var industryVocabulary = []string{
	"Technology", "Finance", "Healthcare", "Education", "Marketing",
	"Retail", "Real Estate", "Consulting", "Entertainment", "Legal", "Other",
}

// --- Documented defaults (applied by the orchestrator on failure) ---

// DefaultIndustry is the industry fallback.
const DefaultIndustry = "Other"

// DefaultPriorityScore is the priority fallback when scoring fails. Distinct
// from the 0 used when enrichment never ran.
const DefaultPriorityScore = 50

// DefaultPersonSummary is the person-summary fallback.
func DefaultPersonSummary(name, title, company string) string {
	return fmt.Sprintf("%s is a %s at %s.", name, title, company)
}

// DefaultCompanySummary is the company-summary fallback.
func DefaultCompanySummary(company string) string {
	return fmt.Sprintf("%s is a business operating in its respective industry.", company)
}

// DefaultConversationStarters are the three generic icebreakers used when
// generation fails.
func DefaultConversationStarters(name, title, company string) []string {
	return []string{
		fmt.Sprintf("I'd love to hear more about your work at %s.", company),
		fmt.Sprintf("How long have you been working as a %s?", title),
		"What are the biggest challenges in your industry right now?",
	}
}

// ProfileSearchURL builds the deterministic LinkedIn search URL used as the
// profile link. A search URL is reliable where a guessed profile slug is not.
func ProfileSearchURL(name, company string) string {
	keywords := url.QueryEscape(name + " " + company)
	return "https://www.linkedin.com/search/results/all/?keywords=" + keywords
}

// llmServices implements Services against the Anthropic messages API. All
// prompts constrain output to a fixed JSON shape which is defensively
// decoded; a rate limiter in front of the client keeps a Wave-1 burst from
// tripping provider limits.
type llmServices struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
}

// NewServices creates the production Services backed by client. ratePerSec
// bounds outbound calls; zero or negative disables limiting.
func NewServices(client anthropic.Client, modelID string, ratePerSec float64) Services {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &llmServices{
		client:  client,
		model:   modelID,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// complete sends a single-turn prompt and returns the response text.
func (s *llmServices) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "enrich: rate limiter")
	}

	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", eris.New("enrich: empty model response")
	}
	return text, nil
}

func (s *llmServices) ClassifyIndustry(ctx context.Context, company, title string) (string, error) {
	prompt := fmt.Sprintf(`Classify the industry of the company %q (contact's job title: %q).
Prefer one of: %s.
Respond with a valid JSON object: {"industry": "<industry>"}`,
		company, title, strings.Join(industryVocabulary, ", "))

	text, err := s.complete(ctx, prompt, 64)
	if err != nil {
		return "", err
	}

	var out struct {
		Industry string `json:"industry"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return "", eris.Wrap(err, "enrich: decode industry")
	}
	if strings.TrimSpace(out.Industry) == "" {
		return "", eris.New("enrich: empty industry")
	}
	return strings.TrimSpace(out.Industry), nil
}

func (s *llmServices) EstimateCompanySize(ctx context.Context, company string) (model.CompanySize, error) {
	prompt := fmt.Sprintf(`Estimate the size of the company %q.
Respond with a valid JSON object: {"company_size": "<size>"} where <size> is exactly one of:
startup, small, medium, large, enterprise, unknown.`, company)

	text, err := s.complete(ctx, prompt, 32)
	if err != nil {
		return "", err
	}

	var out struct {
		CompanySize string `json:"company_size"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return "", eris.Wrap(err, "enrich: decode company size")
	}

	size := model.CompanySize(strings.ToLower(strings.TrimSpace(out.CompanySize)))
	if !model.ValidCompanySize(size) {
		return "", eris.Errorf("enrich: invalid company size %q", out.CompanySize)
	}
	return size, nil
}

func (s *llmServices) Categorize(ctx context.Context, name, title, company string) (model.ContactCategory, error) {
	prompt := fmt.Sprintf(`Categorize the business relationship likely represented by this contact:
name %q, title %q, company %q.
Respond with a valid JSON object: {"category": "<category>"} where <category> is exactly one of:
lead, partner, investor, client, vendor, prospect, influencer, other.`, name, title, company)

	text, err := s.complete(ctx, prompt, 32)
	if err != nil {
		return "", err
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return "", eris.Wrap(err, "enrich: decode category")
	}

	category := model.ContactCategory(strings.ToLower(strings.TrimSpace(out.Category)))
	if !model.ValidCategory(category) {
		return "", eris.Errorf("enrich: invalid category %q", out.Category)
	}
	return category, nil
}

func (s *llmServices) CheckCompetitor(ctx context.Context, company, title, userIndustry string) (bool, error) {
	prompt := fmt.Sprintf(`My industry is %q. Is the company %q (contact title %q) likely a competitor of mine?
Respond with a valid JSON object: {"is_competitor": true or false}`, userIndustry, company, title)

	text, err := s.complete(ctx, prompt, 32)
	if err != nil {
		return false, err
	}

	var out struct {
		IsCompetitor *bool `json:"is_competitor"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return false, eris.Wrap(err, "enrich: decode competitor check")
	}
	if out.IsCompetitor == nil {
		return false, eris.New("enrich: competitor check missing is_competitor")
	}
	return *out.IsCompetitor, nil
}

const priorityRubric = `Score bands:
90-100: C-level or founder at a major or highly-funded company.
70-89: VP or Director at a large company, or C-level at a smaller one.
50-69: manager at an established company, or director at a small one.
30-49: individual contributor at a reputable company.
0-29: junior role or very small company.`

func (s *llmServices) ScorePriority(ctx context.Context, title, company string) (int, error) {
	prompt := fmt.Sprintf(`Score the networking priority of a contact with title %q at company %q on a 0-100 scale.
%s
Respond with a valid JSON object: {"score": <integer 0-100>}`, title, company, priorityRubric)

	text, err := s.complete(ctx, prompt, 32)
	if err != nil {
		return 0, err
	}

	var out struct {
		Score *int `json:"score"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return 0, eris.Wrap(err, "enrich: decode priority score")
	}
	if out.Score == nil {
		return 0, eris.New("enrich: priority score missing")
	}
	if *out.Score < 0 || *out.Score > 100 {
		return 0, eris.Errorf("enrich: priority score %d out of range", *out.Score)
	}
	return *out.Score, nil
}

func (s *llmServices) GenerateTags(ctx context.Context, name, title, company string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate up to %d short networking tags (1-2 words each) for this contact:
name %q, title %q, company %q.
Respond with a valid JSON object: {"tags": ["tag1", "tag2", ...]}`, MaxTags, name, title, company)

	text, err := s.complete(ctx, prompt, 128)
	if err != nil {
		return nil, err
	}

	var out struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return nil, eris.Wrap(err, "enrich: decode tags")
	}

	return s.normalizeTags(out.Tags), nil
}

// normalizeTags trims, title-cases, deduplicates case-insensitively, and
// caps the tag set at MaxTags.
func (s *llmServices) normalizeTags(tags []string) []string {
	// cases.Caser carries transformer state and is not safe for concurrent
	// use, so each call gets its own.
	titler := cases.Title(language.English)

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, MaxTags)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, titler.String(tag))
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

func (s *llmServices) ParseLocation(ctx context.Context, address string) (*model.Location, error) {
	prompt := fmt.Sprintf(`Parse this postal address into structured parts: %q.
Respond with a valid JSON object: {"city": "", "state": "", "country": "", "postal_code": ""}.
Use an empty string for any part you cannot determine.`, address)

	text, err := s.complete(ctx, prompt, 128)
	if err != nil {
		return nil, err
	}

	var out struct {
		City       string `json:"city"`
		State      string `json:"state"`
		Country    string `json:"country"`
		PostalCode string `json:"postal_code"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil {
		return nil, eris.Wrap(err, "enrich: decode location")
	}

	return &model.Location{
		City:       strings.TrimSpace(out.City),
		State:      strings.TrimSpace(out.State),
		Country:    strings.TrimSpace(out.Country),
		PostalCode: strings.TrimSpace(out.PostalCode),
		Address:    address,
	}, nil
}

func (s *llmServices) SummarizePerson(ctx context.Context, name, title, company string) (string, error) {
	prompt := fmt.Sprintf(`Write a comprehensive professional summary for %s, who is a %s at %s.
Detail the typical responsibilities, strategic impact, and required expertise for this role.
Keep it professional, insightful, and around 4-5 sentences. Respond with the summary text only.`,
		name, title, company)

	text, err := s.complete(ctx, prompt, 512)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *llmServices) SummarizeCompany(ctx context.Context, company string) (string, error) {
	prompt := fmt.Sprintf(`Write a comprehensive summary about the company %q.
Detail their industry, key products or services, market position, and any notable achievements or global presence.
If specific details are unavailable, provide a detailed industry overview relevant to this company type.
Keep it around 4-5 sentences. Respond with the summary text only.`, company)

	text, err := s.complete(ctx, prompt, 512)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *llmServices) ResolveProfileLink(name, company string) string {
	return ProfileSearchURL(name, company)
}

func (s *llmServices) ConversationStarters(ctx context.Context, name, title, company, personSummary string) ([]string, error) {
	prompt := fmt.Sprintf(`Based on this person: %s, %s at %s, and this summary: %q,
generate 3 professional conversation starters or icebreakers to use when meeting them.
Respond with a valid JSON array of exactly 3 strings: ["Question 1", "Question 2", "Question 3"]`,
		name, title, company, personSummary)

	text, err := s.complete(ctx, prompt, 256)
	if err != nil {
		return nil, err
	}

	var starters []string
	if err := json.Unmarshal([]byte(cleanJSONArray(text)), &starters); err != nil {
		return nil, eris.Wrap(err, "enrich: decode conversation starters")
	}
	if len(starters) < 3 {
		return nil, eris.Errorf("enrich: expected 3 conversation starters, got %d", len(starters))
	}
	return starters[:3], nil
}
