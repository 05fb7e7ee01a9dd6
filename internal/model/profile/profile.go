package profile

// Well-known profile identifiers.
const (
	UserID      = "user"
	AssistantID = "assistant"
)

// Profile describes a chat participant as rendered by the frontend.
type Profile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Title          string `json:"title,omitempty"`
	AvatarURL      string `json:"avatarUrl"`
	AvatarFallback string `json:"avatarFallback"`
	OpeningLine    string `json:"openingLine,omitempty"`
	SystemPrompt   string `json:"-"`
}

// DefaultSystemPrompt instructs the model how to answer user queries.
const DefaultSystemPrompt = `You are an AI assistant designed to provide helpful and informative responses to user queries.

Please generate a response to the user's query. Make the response helpful and relevant. If asked to provide code, use markdown formatting to wrap the code in triple backticks. If asked to create lists, use markdown formatting to create the lists.`

// Seed returns the two participants of an EduChat conversation.
func Seed() []Profile {
	return []Profile{
		{
			ID:             UserID,
			Name:           "User",
			AvatarURL:      "https://api.dicebear.com/7.x/pixel-art/svg?seed=Callie",
			AvatarFallback: "User",
		},
		{
			ID:             AssistantID,
			Name:           "EduChat AI",
			Title:          "Learning assistant",
			AvatarURL:      "https://api.dicebear.com/7.x/pixel-art/svg?seed=Snowball",
			AvatarFallback: "AI",
			OpeningLine:    "Hi! Ask me anything and I'll do my best to help.",
			SystemPrompt:   DefaultSystemPrompt,
		},
	}
}
