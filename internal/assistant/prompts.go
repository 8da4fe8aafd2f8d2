package assistant

import "strings"

const (
	// ContextPhotography selects the shoot-planning persona.
	ContextPhotography = "photography_shoot_planning"
	// ContextGeneral is used when a request carries no context.
	ContextGeneral = "general"
)

const (
	photographyPrompt = "You are a professional photography assistant specializing in creative shoot planning, treatment development, and technical photography advice. " +
		"Help users brainstorm creative shoot concepts, develop detailed treatments, suggest lighting setups, and provide technical guidance. " +
		"Be creative, professional, and provide actionable advice for photographers of all levels."

	generalPrompt = "You are a helpful AI assistant. Provide clear, concise, and helpful responses."
)

// SystemPrompt returns the system prompt for a conversation context.
func SystemPrompt(contextTag string) string {
	if contextTag == ContextPhotography {
		return photographyPrompt
	}
	return generalPrompt
}

type cannedReply struct {
	keywords []string
	text     string
}

// Checked in order; the first reply with a matching keyword wins.
var cannedReplies = []cannedReply{
	{
		keywords: []string{"brainstorm", "creative", "idea"},
		text: "Here are some creative shoot concepts to inspire you:\n\n" +
			"1. **Minimalist Portraits**: Clean backgrounds, simple lighting, focus on expression\n" +
			"2. **Urban Exploration**: Cityscapes, street photography, architectural elements\n" +
			"3. **Natural Light Studies**: Golden hour, window light, outdoor settings\n" +
			"4. **Conceptual Art**: Surreal compositions, creative props, unique perspectives\n" +
			"5. **Fashion Editorial**: Stylized looks, dramatic lighting, creative poses\n\n" +
			"What type of shoot interests you most? I can help develop a detailed treatment!",
	},
	{
		keywords: []string{"treatment", "plan"},
		text: "I'd be happy to help you create a detailed shoot treatment! Here's a framework:\n\n" +
			"**SHOOT CONCEPT**\n" +
			"• Creative vision and mood\n" +
			"• Target audience and purpose\n" +
			"• Key visual elements\n\n" +
			"**TECHNICAL SPECS**\n" +
			"• Camera settings and equipment\n" +
			"• Lighting setup and modifiers\n" +
			"• Location and environmental factors\n\n" +
			"**CREATIVE DIRECTION**\n" +
			"• Styling and wardrobe\n" +
			"• Posing and composition\n" +
			"• Post-processing approach\n\n" +
			"Tell me more about your specific shoot idea and I'll help you develop it!",
	},
	{
		keywords: []string{"lighting", "setup"},
		text: "Here are some essential lighting setups for different scenarios:\n\n" +
			"**PORTRAIT LIGHTING**\n" +
			"• Rembrandt: 45-degree angle, creates triangle under eye\n" +
			"• Loop: Slightly higher, creates small shadow under nose\n" +
			"• Split: 90-degree angle, dramatic half-lit face\n\n" +
			"**OUTDOOR LIGHTING**\n" +
			"• Golden Hour: Warm, soft, directional light\n" +
			"• Open Shade: Even, diffused, no harsh shadows\n" +
			"• Backlighting: Silhouettes and rim lighting effects\n\n" +
			"**STUDIO LIGHTING**\n" +
			"• Three-point setup: Key, fill, and rim lights\n" +
			"• Softbox for diffused, flattering light\n" +
			"• Reflectors for fill and bounce\n\n" +
			"What type of lighting are you working with?",
	},
}

const defaultCannedReply = "I'm here to help with your photography projects! I can assist with:\n\n" +
	"• Creative shoot concepts and brainstorming\n" +
	"• Detailed treatment development\n" +
	"• Lighting and technical advice\n" +
	"• Equipment recommendations\n" +
	"• Post-processing guidance\n\n" +
	"What would you like to work on today?"

// CannedReply picks an offline answer by keyword. It is used when no LLM is
// configured or the provider fails.
func CannedReply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range cannedReplies {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.text
			}
		}
	}
	return defaultCannedReply
}
