package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/abelzeko/floodcast/internal/log"
)

// Commands the agent may choose
const (
	CommandStationLevels   = "GetStationLevels"
	CommandAlerts          = "GetAlerts"
	CommandRainfallSummary = "GetRainfallSummary"
	CommandCompareRainfall = "CompareRainfall"
	CommandGeneralQuery    = "GeneralQuery"
)

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName      string  `json:"command_name" jsonschema_description:"One of GetStationLevels, GetAlerts, GetRainfallSummary, CompareRainfall or GeneralQuery"`
	Station          string  `json:"station" jsonschema_description:"Station name exactly as it appears in the known station list, or empty"`
	Month            string  `json:"month" jsonschema_description:"English month name the user asked about, or empty"`
	ThresholdPercent float64 `json:"threshold_percent" jsonschema_description:"Percent of danger level the user asked for, 0 when not given"`
	ThresholdGiven   bool    `json:"threshold_given" jsonschema_description:"True only when the user named a percentage, including 0"`
	UserMessage      string  `json:"user_message" jsonschema_description:"A short message to show back to the user in their original language"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretUserQuery(ctx context.Context, userMessage string, knownStations []string) (*AgentResponse, error)
}

// openAIServiceImpl implements the OpenAIService interface.
type openAIServiceImpl struct {
	client openai.Client
	schema interface{}
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// NewOpenAIService creates and initializes a new OpenAIService.
func NewOpenAIService(apiKey string) (OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	schema := GenerateSchema[AgentResponse]()

	return &openAIServiceImpl{
		client: client,
		schema: schema,
	}, nil
}

// SystemPrompt builds the instructions sent with every query
func SystemPrompt(knownStations []string) string {
	return fmt.Sprintf(`You are a calm, precise flood information assistant for a river monitoring network.
Users are not hydrologists. They ask which stations are close to their danger level and how this
month's rainfall compares to previous years.

Known stations: %s

Behavior:
1. The user wants water levels for all stations or one station:
   - command_name = "GetStationLevels", station = the matching known station or "".
2. The user wants to know which stations are in danger or on alert:
   - command_name = "GetAlerts". If they mention a percentage of the danger level, put it in threshold_percent
     and set threshold_given = true. Otherwise threshold_given = false.
3. The user asks where it rained the most, or about rainfall in a month:
   - command_name = "GetRainfallSummary", month = the English month name or "".
4. The user asks how current rainfall at a station compares with history:
   - command_name = "CompareRainfall", station = the matching known station, month = the English month name or "".
5. Anything else: command_name = "GeneralQuery" and answer briefly in user_message.

Always reply in the user's language in user_message, one sentence. Output strictly JSON.`, strings.Join(knownStations, ", "))
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *openAIServiceImpl) InterpretUserQuery(ctx context.Context, userMessage string, knownStations []string) (*AgentResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, station, month, threshold and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(knownStations)),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})

	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	return ParseAgentResponse(chat.Choices[0].Message.Content)
}

// ParseAgentResponse decodes the JSON content of an agent reply
func ParseAgentResponse(content string) (*AgentResponse, error) {
	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		log.Errorf("Failed to unmarshal OpenAI response: %s\nRaw response: %s", err, content)
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	return &agentResp, nil
}
