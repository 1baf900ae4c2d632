package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cardfolio/cardscan-cli/internal/model"
	"github.com/cardfolio/cardscan-cli/internal/vision"
	"github.com/cardfolio/cardscan-cli/pkg/anthropic"
)

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse builds a single-block text response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, imageURI string) (model.RawExtraction, error) {
	args := m.Called(ctx, imageURI)
	return args.Get(0).(model.RawExtraction), args.Error(1)
}

// --- Quality Mock ---

type mockQualityAnalyzer struct {
	mock.Mock
}

func (m *mockQualityAnalyzer) Assess(raw model.RawExtraction) (model.QualityAssessment, error) {
	args := m.Called(raw)
	return args.Get(0).(model.QualityAssessment), args.Error(1)
}

// --- Services Mock ---

type mockServices struct {
	mock.Mock
}

func (m *mockServices) ClassifyIndustry(ctx context.Context, company, title string) (string, error) {
	args := m.Called(ctx, company, title)
	return args.String(0), args.Error(1)
}

func (m *mockServices) EstimateCompanySize(ctx context.Context, company string) (model.CompanySize, error) {
	args := m.Called(ctx, company)
	return args.Get(0).(model.CompanySize), args.Error(1)
}

func (m *mockServices) Categorize(ctx context.Context, name, title, company string) (model.ContactCategory, error) {
	args := m.Called(ctx, name, title, company)
	return args.Get(0).(model.ContactCategory), args.Error(1)
}

func (m *mockServices) CheckCompetitor(ctx context.Context, company, title, userIndustry string) (bool, error) {
	args := m.Called(ctx, company, title, userIndustry)
	return args.Bool(0), args.Error(1)
}

func (m *mockServices) ScorePriority(ctx context.Context, title, company string) (int, error) {
	args := m.Called(ctx, title, company)
	return args.Int(0), args.Error(1)
}

func (m *mockServices) GenerateTags(ctx context.Context, name, title, company string) ([]string, error) {
	args := m.Called(ctx, name, title, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockServices) ParseLocation(ctx context.Context, address string) (*model.Location, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Location), args.Error(1)
}

func (m *mockServices) SummarizePerson(ctx context.Context, name, title, company string) (string, error) {
	args := m.Called(ctx, name, title, company)
	return args.String(0), args.Error(1)
}

func (m *mockServices) SummarizeCompany(ctx context.Context, company string) (string, error) {
	args := m.Called(ctx, company)
	return args.String(0), args.Error(1)
}

func (m *mockServices) ResolveProfileLink(name, company string) string {
	args := m.Called(name, company)
	return args.String(0)
}

func (m *mockServices) ConversationStarters(ctx context.Context, name, title, company, personSummary string) ([]string, error) {
	args := m.Called(ctx, name, title, company, personSummary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Ensure interface compliance ---
var (
	_ anthropic.Client = (*mockAnthropicClient)(nil)
	_ vision.Extractor = (*mockExtractor)(nil)
	_ QualityAnalyzer  = (*mockQualityAnalyzer)(nil)
	_ Services         = (*mockServices)(nil)
)
