package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"underwriting-agent/domain"
)

// ErrExtractionUnavailable is returned when no API key is configured and
// document extraction is requested.
var ErrExtractionUnavailable = errors.New("extraction service is not configured")

// AIService calls the OpenAI chat completions API to structure raw
// document text into a BorrowerRecord and to generate decision
// explanations. When no API key is configured, extraction is unavailable
// and explanations fall back to deterministic text.
type AIService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	httpClient *http.Client
}

type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		apiKey:  apiKey,
		apiURL:  "https://api.openai.com/v1/chat/completions",
		model:   "gpt-4o-mini",
		enabled: apiKey != "",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enabled reports whether an API key is configured.
func (s *AIService) Enabled() bool {
	return s.enabled
}

const extractionSystemPrompt = "You are a mortgage underwriting specialist extracting financial data " +
	"from borrower documents for home loan review. You return only strict JSON, no explanations."

const extractionPrompt = `Extract the borrower's financial data from the document text below.

DOCUMENT TEXT:
%s

EXTRACTION RULES:
- name: borrower's full name
- employment: one of "salaried", "self_employed", "other"
- annualIncome: GROSS annual income BEFORE taxes (bi-weekly pay × 26, monthly × 12)
- monthlyDebt: all monthly debt payments EXCLUDING the new housing payment
- housingPayment: NEW monthly mortgage payment including principal, interest, taxes, insurance, PMI (not current rent); 0 if not stated
- savings: total liquid assets (checking + savings balances)
- assets: total declared assets including savings
- liabilities: total outstanding debt balances
- loanAmount: requested loan amount (purchase price minus down payment)
- propertyValue: purchase price or appraised value; 0 if not stated
- revolvingBalance: current total credit card balances; 0 if not stated
- revolvingLimit: total credit card limits; 0 if not stated
- incomeProofYears: whole years of income documentation present (tax returns, W-2s, statements)

Return ONLY a JSON object with exactly these field names and numeric values
(strings only for name and employment). NO additional text.`

type extractedRecord struct {
	Name             *string  `json:"name"`
	Employment       *string  `json:"employment"`
	AnnualIncome     *float64 `json:"annualIncome"`
	MonthlyDebt      *float64 `json:"monthlyDebt"`
	HousingPayment   *float64 `json:"housingPayment"`
	Savings          *float64 `json:"savings"`
	Assets           *float64 `json:"assets"`
	Liabilities      *float64 `json:"liabilities"`
	LoanAmount       *float64 `json:"loanAmount"`
	PropertyValue    *float64 `json:"propertyValue"`
	RevolvingBalance *float64 `json:"revolvingBalance"`
	RevolvingLimit   *float64 `json:"revolvingLimit"`
	IncomeProofYears *int     `json:"incomeProofYears"`
}

// ExtractBorrowerRecord structures raw document text into a BorrowerRecord.
func (s *AIService) ExtractBorrowerRecord(text string) (domain.BorrowerRecord, error) {
	if !s.enabled {
		return domain.BorrowerRecord{}, ErrExtractionUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return domain.BorrowerRecord{}, invalidInput("text", "must not be empty")
	}

	content, err := s.callLLM(extractionSystemPrompt, fmt.Sprintf(extractionPrompt, text))
	if err != nil {
		return domain.BorrowerRecord{}, fmt.Errorf("extraction call: %w", err)
	}

	return parseExtractedRecord(content)
}

// parseExtractedRecord decodes and validates the model output. Every
// numeric field must be present and non-negative; values are never
// coerced or clamped.
func parseExtractedRecord(content string) (domain.BorrowerRecord, error) {
	content = stripJSONFences(content)

	var raw extractedRecord
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&raw); err != nil {
		return domain.BorrowerRecord{}, fmt.Errorf("extraction output is not valid JSON: %w", err)
	}

	required := []struct {
		name  string
		value *float64
	}{
		{"annualIncome", raw.AnnualIncome},
		{"monthlyDebt", raw.MonthlyDebt},
		{"housingPayment", raw.HousingPayment},
		{"savings", raw.Savings},
		{"assets", raw.Assets},
		{"liabilities", raw.Liabilities},
		{"loanAmount", raw.LoanAmount},
		{"propertyValue", raw.PropertyValue},
		{"revolvingBalance", raw.RevolvingBalance},
		{"revolvingLimit", raw.RevolvingLimit},
	}
	for _, f := range required {
		if f.value == nil {
			return domain.BorrowerRecord{}, invalidInput(f.name, "is missing from the extracted data")
		}
		if *f.value < 0 {
			return domain.BorrowerRecord{}, invalidInput(f.name, "must not be negative")
		}
	}
	if raw.Name == nil || strings.TrimSpace(*raw.Name) == "" {
		return domain.BorrowerRecord{}, invalidInput("name", "is missing from the extracted data")
	}
	if raw.Employment == nil {
		return domain.BorrowerRecord{}, invalidInput("employment", "is missing from the extracted data")
	}

	// Models occasionally answer "Self-Employed" despite the instructions.
	employment := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(*raw.Employment)), "-", "_")

	record := domain.BorrowerRecord{
		Name:         strings.TrimSpace(*raw.Name),
		Employment:   domain.EmploymentType(employment),
		AnnualIncome: *raw.AnnualIncome,
		MonthlyDebt:  *raw.MonthlyDebt,
		Savings:      *raw.Savings,
		Assets:       *raw.Assets,
		Liabilities:  *raw.Liabilities,
		LoanAmount:   *raw.LoanAmount,
	}
	if raw.IncomeProofYears != nil {
		record.IncomeProofYears = *raw.IncomeProofYears
	}

	// Zero means "not stated in the documents" for the optional sections.
	if *raw.HousingPayment > 0 {
		record.HousingPayment = raw.HousingPayment
	}
	if *raw.PropertyValue > 0 {
		record.PropertyValue = raw.PropertyValue
	}
	if *raw.RevolvingLimit > 0 {
		record.RevolvingBalance = raw.RevolvingBalance
		record.RevolvingLimit = raw.RevolvingLimit
	}

	return record, nil
}

// stripJSONFences removes a markdown code fence if the model wrapped its
// JSON in one.
func stripJSONFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// GenerateDecisionExplanation produces a short narrative for the reviewer.
// Falls back to deterministic text when the API is unavailable.
func (s *AIService) GenerateDecisionExplanation(
	record domain.BorrowerRecord,
	eval domain.Evaluation,
) string {
	if !s.enabled {
		return fallbackExplanation(eval)
	}

	var ratios strings.Builder
	for _, r := range eval.Ratios {
		fmt.Fprintf(&ratios, "- %s: %s (required %s, %s)\n",
			r.Name.DisplayName(), formatRatioValue(r), r.Required, r.Status)
	}
	flagsText := "none"
	if len(eval.RiskFlags) > 0 {
		flagsText = "\n- " + strings.Join(eval.RiskFlags, "\n- ")
	}

	prompt := fmt.Sprintf(`Summarize this loan underwriting result for a human reviewer.

BORROWER: %s (%s, annual income $%.2f)
DECISION: %s

RATIOS:
%s
RISK FLAGS: %s

Write 2-3 plain sentences explaining the decision in terms of the ratios
and flags above. Do not invent numbers that are not listed.`,
		record.Name, record.Employment, record.AnnualIncome,
		eval.Decision.Status, ratios.String(), flagsText)

	explanation, err := s.callLLM(
		"You are a loan underwriting assistant. You explain decisions clearly and factually.",
		prompt)
	if err != nil {
		log.Printf("Error calling AI service for decision explanation: %v", err)
		return fallbackExplanation(eval)
	}

	return explanation
}

func fallbackExplanation(eval domain.Evaluation) string {
	failing := 0
	for _, r := range eval.Ratios {
		if r.Status == domain.StatusFail {
			failing++
		}
	}

	switch eval.Decision.Status {
	case domain.DecisionApprove:
		return fmt.Sprintf("All %d computed ratios meet policy thresholds and no risk flags were raised.",
			len(eval.Ratios))
	case domain.DecisionDeny:
		return fmt.Sprintf("%d of %d ratios fail policy thresholds, including at least one past its hard limit.",
			failing, len(eval.Ratios))
	default:
		return fmt.Sprintf("%d of %d ratios fail policy thresholds and %d risk flag(s) were raised; none is critical, so the application can proceed with additional documentation.",
			failing, len(eval.Ratios), len(eval.RiskFlags))
	}
}

func (s *AIService) callLLM(system, prompt string) (string, error) {
	reqBody := OpenAIRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 500,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var openAIResp OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return "", err
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no response from AI")
	}

	return openAIResp.Choices[0].Message.Content, nil
}
